/*
Package knn implements a nearest neighbour classifier over an induced metric:
it tunes attribute weights, indexes the training rows, optionally learns the
number of neighbours by leave-one-out accuracy and classifies rows by
weighted voting of their nearest neighbours.
*/
package knn

import (
	"context"
	"fmt"
	"strconv"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/index"
	"github.com/awojna/Rseslib-sub001/metric"
	"github.com/awojna/Rseslib-sub001/metrics"
	"github.com/awojna/Rseslib-sub001/props"
)

// Stage is a step of the construction of a classifier.
type Stage int

const (
	Uninitialized Stage = iota
	MetricInduced
	WeightsTuned
	Indexed
	KOptimized
	Ready
)

var stageNames = [...]string{"Uninitialized", "MetricInduced", "WeightsTuned", "Indexed", "KOptimized", "Ready"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Stage(" + strconv.Itoa(int(s)) + ")"
	}
	return stageNames[s]
}

/*
Classifier is a k nearest neighbours classifier. Once built it is safe for
concurrent classification; SetK, SetVoting, SetFilter and OptimizeK must not
be called concurrently with queries.
*/
type Classifier struct {
	stage           Stage
	header          *dataset.Header
	metric          *metric.Weighted
	transformer     *metric.Transformer
	rows            []dataset.Row
	index           index.Index
	indexing        bool
	leafSize        int
	defaultDecision int
	maxK            int
	k               int
	voting          Voting
	filter          bool
	logger          Logger
}

/*
Query holds per-call classification parameters: the number of neighbours,
the voting method and whether neighbours are filtered for consistency.
*/
type Query struct {
	K      int
	Voting Voting
	Filter bool
}

/*
New takes a context, a training table and options and builds a classifier.

Rows with a missing decision are dropped. The metric is induced from the
remaining rows, which are then transformed for it; the attribute weights are
tuned and the transformed rows indexed. The default decision is the most
frequent one, the lowest code on ties. With LearnOptimalK, k is chosen by
leave-one-out accuracy.

Invalid options are returned as *props.ConfigurationError and unusable
tables as DataError. On cancellation the returned error wraps the context
error and no classifier is returned.
*/
func New(ctx context.Context, table dataset.Table, opts Options) (*Classifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{
		header:   table.Header(),
		indexing: opts.Indexing,
		leafSize: opts.Tree.LeafSize,
		maxK:     opts.MaxK,
		k:        opts.K,
		voting:   opts.Voting,
		filter:   opts.Filter,
		logger:   opts.Logger,
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}
	labeled, err := trainingRows(ctx, table)
	if err != nil {
		return nil, err
	}
	c.logger.Logf("Inducing %s metric from %d rows...", opts.Metric.Variant, len(labeled.rows))
	c.metric, err = metric.New(ctx, labeled.table, opts.Metric)
	if err != nil {
		return nil, fmt.Errorf("building classifier: %w", err)
	}
	c.advance(MetricInduced)
	c.transformer = c.metric.TransformationOutside()
	transformed, err := c.transformer.TransformTable(ctx, labeled.table)
	if err != nil {
		return nil, fmt.Errorf("building classifier: %w", err)
	}
	c.logger.Logf("Tuning attribute weights with %s weighting...", opts.Weighting.Method)
	if err = metric.Optimize(ctx, c.metric, transformed, opts.Weighting); err != nil {
		return nil, fmt.Errorf("building classifier: %w", err)
	}
	c.advance(WeightsTuned)
	if c.rows, err = transformed.Rows(ctx); err != nil {
		return nil, fmt.Errorf("building classifier: %w", err)
	}
	if err = c.buildIndex(ctx); err != nil {
		return nil, fmt.Errorf("building classifier: %w", err)
	}
	c.advance(Indexed)
	c.defaultDecision = mostFrequent(labeled.distribution)
	if opts.LearnOptimalK {
		c.logger.Logf("Learning optimal k up to %d...", c.maxK)
		if err = c.OptimizeK(ctx); err != nil {
			return nil, fmt.Errorf("building classifier: %w", err)
		}
		c.logger.Logf("Optimal k is %d", c.k)
		c.advance(KOptimized)
	}
	c.advance(Ready)
	return c, nil
}

type labeledTable struct {
	table        dataset.Table
	rows         []dataset.Row
	distribution []int
}

func trainingRows(ctx context.Context, table dataset.Table) (*labeledTable, error) {
	header := table.Header()
	rows, err := table.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading training rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	result := &labeledTable{distribution: make([]int, header.NumDecisions())}
	present := false
	conditional := header.Conditional()
	for _, r := range rows {
		d := header.Decision(r)
		if d < 0 || d >= len(result.distribution) {
			continue
		}
		result.rows = append(result.rows, r)
		result.distribution[d]++
		for _, i := range conditional {
			if !dataset.Missing(r[i]) {
				present = true
				break
			}
		}
	}
	if len(result.rows) == 0 {
		return nil, ErrNoDecisions
	}
	if !present {
		return nil, ErrAllValuesMissing
	}
	result.table = dataset.New(header, result.rows)
	return result, nil
}

func (c *Classifier) buildIndex(ctx context.Context) error {
	if !c.indexing {
		c.index = index.NewLinear(c.metric, c.rows)
		return nil
	}
	c.logger.Logf("Indexing %d rows...", len(c.rows))
	tree, err := index.NewTree(ctx, c.metric, c.rows, index.Options{LeafSize: c.leafSize})
	if err != nil {
		return err
	}
	c.index = tree
	return nil
}

func (c *Classifier) advance(s Stage) {
	c.stage = s
	metrics.TrainingStage.Set(float64(s))
}

// mostFrequent returns the decision with the largest count, the lowest code on ties.
func mostFrequent(distribution []int) int {
	result := 0
	for d, n := range distribution {
		if n > distribution[result] {
			result = d
		}
	}
	return result
}

// State returns the construction stage reached by the classifier.
func (c *Classifier) State() Stage {
	return c.stage
}

// Header returns the header of the rows the classifier accepts.
func (c *Classifier) Header() *dataset.Header {
	return c.header
}

// Metric returns the metric of the classifier.
func (c *Classifier) Metric() *metric.Weighted {
	return c.metric
}

// DefaultDecision returns the decision given when no neighbour votes.
func (c *Classifier) DefaultDecision() int {
	return c.defaultDecision
}

// K returns the number of neighbours voting in Classify.
func (c *Classifier) K() int {
	return c.k
}

// MaxK returns the largest number of neighbours the classifier considers.
func (c *Classifier) MaxK() int {
	return c.maxK
}

// Voting returns the voting method used by Classify.
func (c *Classifier) Voting() Voting {
	return c.voting
}

// Filter tells whether Classify filters neighbours for consistency.
func (c *Classifier) Filter() bool {
	return c.filter
}

// SetK sets the number of neighbours voting in Classify.
func (c *Classifier) SetK(k int) error {
	if k < 1 || k > c.maxK {
		return &props.ConfigurationError{Property: PropertyK, Value: strconv.Itoa(k), Reason: "must be between 1 and " + strconv.Itoa(c.maxK)}
	}
	c.k = k
	return nil
}

// SetVoting sets the voting method used by Classify.
func (c *Classifier) SetVoting(v Voting) error {
	if err := validateVoting(v); err != nil {
		return err
	}
	c.voting = v
	return nil
}

// SetFilter sets whether Classify filters neighbours for consistency.
func (c *Classifier) SetFilter(filter bool) {
	c.filter = filter
}

/*
Classify returns the decision code for a row of the classifier's header with
the configured number of neighbours, voting and filtering.
*/
func (c *Classifier) Classify(r dataset.Row) (int, error) {
	return c.ClassifyWith(r, Query{K: c.k, Voting: c.voting, Filter: c.filter})
}

/*
ClassifyWithDistributedDecision returns the votes of the neighbours of a row
normalized to sum 1, indexed by decision code. When no neighbour votes, the
default decision gets all of the mass.
*/
func (c *Classifier) ClassifyWithDistributedDecision(r dataset.Row) ([]float64, error) {
	t, err := c.tally(r, Query{K: c.k, Voting: c.voting, Filter: c.filter})
	if err != nil {
		return nil, err
	}
	result := append([]float64(nil), t.distribution()...)
	var sum float64
	for _, w := range result {
		sum += w
	}
	if sum == 0 {
		result[c.defaultDecision] = 1
		return result, nil
	}
	for d := range result {
		result[d] /= sum
	}
	return result, nil
}

/*
ClassifyWith returns the decision code for a row with the parameters of the
given query. The k nearest neighbours vote, together with every neighbour
tied in distance with the k-th one.
*/
func (c *Classifier) ClassifyWith(r dataset.Row, q Query) (int, error) {
	t, err := c.tally(r, q)
	if err != nil {
		return 0, err
	}
	metrics.Classifications.WithLabelValues(string(q.Voting)).Inc()
	if d := t.winner(); d >= 0 {
		return d, nil
	}
	metrics.DefaultDecisions.Inc()
	return c.defaultDecision, nil
}

func (c *Classifier) tally(r dataset.Row, q Query) (*tally, error) {
	if err := validateVoting(q.Voting); err != nil {
		return nil, err
	}
	if q.K < 1 {
		return nil, &props.ConfigurationError{Property: PropertyK, Value: strconv.Itoa(q.K), Reason: "must be a positive integer"}
	}
	tr, err := c.transform(r)
	if err != nil {
		return nil, err
	}
	neighbours, err := c.index.KNearestWithTies(tr, q.K)
	if err != nil {
		return nil, fmt.Errorf("classifying row: %v", err)
	}
	header := c.transformer.TransformedHeader()
	if q.Filter {
		MarkConsistency(c.metric, header, tr, neighbours)
	}
	t := newTally(q.Voting, header.NumDecisions())
	for _, n := range neighbours[1:] {
		if q.Filter && !n.Consistent {
			continue
		}
		t.add(n, header.Decision(n.Row))
	}
	return t, nil
}

func (c *Classifier) transform(r dataset.Row) (dataset.Row, error) {
	if c.stage != Ready {
		return nil, ErrNotReady
	}
	if len(r) != c.header.Len() {
		return nil, fmt.Errorf("classifying row: expected %d values, got %d", c.header.Len(), len(r))
	}
	return c.transformer.Transform(r), nil
}

/*
ClassifyWithParameter returns the decisions Classify would give a row for
every number of neighbours from 0 to the maximal one, with the configured
voting and filtering. The decision for 0 neighbours is the default one.
*/
func (c *Classifier) ClassifyWithParameter(r dataset.Row) ([]int, error) {
	tr, err := c.transform(r)
	if err != nil {
		return nil, err
	}
	neighbours, err := c.index.KNearestWithTies(tr, c.maxK)
	if err != nil {
		return nil, fmt.Errorf("classifying row: %v", err)
	}
	return c.decisionsByK(tr, neighbours), nil
}

/*
decisionsByK adds the neighbours to a single tally in ascending distance
order. Before answering for k it adds the k-th neighbour and every one tied
with it, so neighbours at the same distance always vote together.
*/
func (c *Classifier) decisionsByK(q dataset.Row, neighbours []index.Neighbour) []int {
	header := c.transformer.TransformedHeader()
	if c.filter {
		MarkConsistency(c.metric, header, q, neighbours)
	}
	result := make([]int, c.maxK+1)
	result[0] = c.defaultDecision
	t := newTally(c.voting, header.NumDecisions())
	next := 1
	for k := 1; k <= c.maxK; k++ {
		if k < len(neighbours) {
			kth := neighbours[k].Distance
			for next < len(neighbours) && (next <= k || index.Tied(neighbours[next].Distance, kth)) {
				if n := neighbours[next]; !c.filter || n.Consistent {
					t.add(n, header.Decision(n.Row))
				}
				next++
			}
		}
		result[k] = t.winner()
		if result[k] < 0 {
			result[k] = c.defaultDecision
		}
	}
	return result
}

/*
OptimizeK sets k to the number of neighbours in 1..MaxK with the highest
leave-one-out accuracy on the training rows, the smallest one on ties.
Cancellation is checked once per training row; on cancellation k is left
unchanged.
*/
func (c *Classifier) OptimizeK(ctx context.Context) error {
	header := c.transformer.TransformedHeader()
	correct := make([]int, c.maxK+1)
	for i, r := range c.rows {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("optimizing k: %w", err)
		}
		neighbours, err := c.index.KNearestExcluding(r, c.maxK, i, true)
		if err != nil {
			return fmt.Errorf("optimizing k: %v", err)
		}
		actual := header.Decision(r)
		for k, d := range c.decisionsByK(r, neighbours) {
			if k > 0 && d == actual {
				correct[k]++
			}
		}
	}
	best := 1
	for k := 2; k <= c.maxK; k++ {
		if correct[k] > correct[best] {
			best = k
		}
	}
	c.k = best
	return nil
}
