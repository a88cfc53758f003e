package index

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/metric"
	"github.com/awojna/Rseslib-sub001/metrics"
	"github.com/awojna/Rseslib-sub001/props"
)

const (
	// PropertyLeafSize names the property with the maximal number of rows in a leaf.
	PropertyLeafSize = "leafSize"
	// DefaultLeafSize is the leaf size used when none is configured.
	DefaultLeafSize = 8
)

// Options configure the construction of a tree.
type Options struct {
	LeafSize int
}

// OptionsFromProperties reads tree options from properties.
func OptionsFromProperties(p props.Properties) (Options, error) {
	leafSize, err := p.PositiveInt(PropertyLeafSize, DefaultLeafSize)
	return Options{LeafSize: leafSize}, err
}

/*
node is a subtree of a Tree. A leaf holds the IDs of its rows. An inner node
holds two pivot rows and two children: every row of the node went to the
child of its closer pivot. For every child and pivot the node keeps the
smallest and largest distance from the pivot to the rows of the child.
*/
type node struct {
	ids      []int
	pivots   [2]int
	children [2]*node
	bounds   [2][2][2]float64
}

func (n *node) leaf() bool {
	return n.children[0] == nil
}

/*
Tree is a dual-pivot metric tree. It is immutable once built and answers
exact queries: results are the same as the ones of a Linear index over the
same rows and metric.
*/
type Tree struct {
	metric metric.Metric
	rows   []dataset.Row
	root   *node
	leaf   int
}

/*
NewTree takes a context, a metric, rows and options and builds a tree over the
rows. The IDs of the rows are their positions in the slice. Cancellation is
checked once per node and returned wrapping the context error.
*/
func NewTree(ctx context.Context, m metric.Metric, rows []dataset.Row, opts Options) (*Tree, error) {
	start := time.Now()
	leafSize := opts.LeafSize
	if leafSize < 1 {
		leafSize = DefaultLeafSize
	}
	t := &Tree{metric: m, rows: rows, leaf: leafSize}
	if len(rows) > 0 {
		ids := make([]int, len(rows))
		for i := range ids {
			ids[i] = i
		}
		var err error
		t.root, err = t.build(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("building metric tree: %w", err)
		}
	}
	metrics.IndexBuildDuration.WithLabelValues("tree").Observe(time.Since(start).Seconds())
	return t, nil
}

func (t *Tree) build(ctx context.Context, ids []int) (*node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := &node{}
	if len(ids) <= t.leaf {
		n.ids = ids
		return n, nil
	}
	p0 := t.farthest(ids[0], ids)
	p1 := t.farthest(p0, ids)
	if t.metric.Distance(t.rows[p0], t.rows[p1]) == 0 {
		n.ids = ids
		return n, nil
	}
	n.pivots = [2]int{p0, p1}
	var parts [2][]int
	var dists [2][]float64
	for _, id := range ids {
		d0 := t.metric.Distance(t.rows[p0], t.rows[id])
		d1 := t.metric.Distance(t.rows[p1], t.rows[id])
		c := 0
		if d1 < d0 {
			c = 1
		}
		parts[c] = append(parts[c], id)
		dists[c] = append(dists[c], d0, d1)
	}
	for c := range parts {
		for p := 0; p < 2; p++ {
			lo, hi := math.Inf(1), math.Inf(-1)
			for i := p; i < len(dists[c]); i += 2 {
				lo = math.Min(lo, dists[c][i])
				hi = math.Max(hi, dists[c][i])
			}
			n.bounds[c][p] = [2]float64{lo, hi}
		}
		child, err := t.build(ctx, parts[c])
		if err != nil {
			return nil, err
		}
		n.children[c] = child
	}
	return n, nil
}

// farthest returns the ID among ids farthest from the row with ID from,
// the lowest such ID on ties.
func (t *Tree) farthest(from int, ids []int) int {
	result, max := from, -1.0
	for _, id := range ids {
		if d := t.metric.Distance(t.rows[from], t.rows[id]); d > max || (d == max && id < result) {
			result, max = id, d
		}
	}
	return result
}

func (t *Tree) Len() int {
	return len(t.rows)
}

func (t *Tree) Rows() []dataset.Row {
	return t.rows
}

func (t *Tree) KNearest(q dataset.Row, k int) ([]Neighbour, error) {
	return t.KNearestExcluding(q, k, -1, false)
}

func (t *Tree) KNearestWithTies(q dataset.Row, k int) ([]Neighbour, error) {
	return t.KNearestExcluding(q, k, -1, true)
}

/*
KNearestExcluding returns the k nearest rows to q other than the one with the
given ID, with the rows tied with the k-th one if ties is set.

The search visits nodes in ascending order of the lower bound of their
distance to q and stops when no pending node can hold a row closer than the
worst kept one. Tied rows are gathered by a second pass collecting the rows
within the k-th distance.
*/
func (t *Tree) KNearestExcluding(q dataset.Row, k int, id int, ties bool) ([]Neighbour, error) {
	if len(t.rows) == 0 {
		return nil, ErrEmpty
	}
	if k < 1 {
		return []Neighbour{{}}, nil
	}
	visited := 0
	results := make(resultHeap, 0, k+1)
	nodes := nodeHeap{{t.root, 0}}
	for nodes.Len() > 0 {
		next := heap.Pop(&nodes).(pending)
		if len(results) == k && next.bound > within(results[0].Distance) {
			break
		}
		if next.node.leaf() {
			for _, rid := range next.node.ids {
				if rid == id {
					continue
				}
				visited++
				n := Neighbour{Row: t.rows[rid], Distance: t.metric.Distance(q, t.rows[rid]), ID: rid}
				if len(results) < k {
					heap.Push(&results, n)
				} else if Less(n, results[0]) {
					results[0] = n
					heap.Fix(&results, 0)
				}
			}
			continue
		}
		visited += 2
		for c, b := range t.childBounds(q, next.node) {
			heap.Push(&nodes, pending{next.node.children[c], math.Max(b, next.bound)})
		}
	}
	candidates := []Neighbour(results)
	if ties && len(results) == k {
		worst := results[0]
		var extra []Neighbour
		visited += t.within(t.root, q, within(worst.Distance), func(n Neighbour) {
			if n.ID != id && Less(worst, n) {
				extra = append(extra, n)
			}
		})
		candidates = append(candidates, extra...)
	}
	metrics.VisitedRows.WithLabelValues("tree").Observe(float64(visited))
	return arrange(candidates, k, ties), nil
}

/*
childBounds returns, for both children of an inner node, a lower bound of the
distance from q to their rows: by the triangle inequality a row x of a child
satisfies d(q,x) >= lo - d(q,p) and d(q,x) >= d(q,p) - hi for both pivots p.
*/
func (t *Tree) childBounds(q dataset.Row, n *node) [2]float64 {
	var dq [2]float64
	for p := range dq {
		dq[p] = t.metric.Distance(q, t.rows[n.pivots[p]])
	}
	var result [2]float64
	for c := range result {
		for p := range dq {
			lo, hi := n.bounds[c][p][0], n.bounds[c][p][1]
			result[c] = math.Max(result[c], math.Max(lo-dq[p], dq[p]-hi))
		}
	}
	return result
}

// within calls found for every row at distance at most radius from q in the
// subtree and returns the number of distances computed.
func (t *Tree) within(n *node, q dataset.Row, radius float64, found func(Neighbour)) int {
	if n.leaf() {
		for _, rid := range n.ids {
			if d := t.metric.Distance(q, t.rows[rid]); d <= radius {
				found(Neighbour{Row: t.rows[rid], Distance: d, ID: rid})
			}
		}
		return len(n.ids)
	}
	visited := 2
	for c, b := range t.childBounds(q, n) {
		if b <= within(radius) {
			visited += t.within(n.children[c], q, radius, found)
		}
	}
	return visited
}
