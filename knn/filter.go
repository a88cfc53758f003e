package knn

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"
	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/index"
	"github.com/awojna/Rseslib-sub001/metric"
)

/*
MarkConsistency sets the Consistent flag of every neighbour after slot 0 of
a search result for query q, with rows and neighbours transformed for the
metric and their decisions read with the header.

The cube between q and a neighbour spans, on every attribute with ordered
values, the interval between their coordinates, and on every other
attribute the values no farther from q than the neighbour's. A neighbour is
inconsistent when another neighbour at most as far from q, with a different
decision, lies in its cube.
*/
func MarkConsistency(m metric.ValueDistance, header *dataset.Header, q dataset.Row, neighbours []index.Neighbour) {
	for i := 1; i < len(neighbours); i++ {
		neighbours[i].Consistent = consistentAt(m, header, q, neighbours, i, 1)
	}
}

/*
MarkConsistencyLevels computes the consistency of every neighbour after slot
0 at several cube scales at once and stores the levels it is consistent at
in the neighbour's Levels bitmap.

At level l the cube of a neighbour is shrunk towards q by same[l] when the
neighbour's decision is ref, by other[l] otherwise. A negative scale makes
the neighbour consistent at that level without testing its cube.
*/
func MarkConsistencyLevels(m metric.ValueDistance, header *dataset.Header, q dataset.Row, neighbours []index.Neighbour, ref int, same, other []float64) error {
	if len(same) != len(other) {
		return fmt.Errorf("marking consistency levels: %d scales for the reference decision and %d for others", len(same), len(other))
	}
	for i := 1; i < len(neighbours); i++ {
		scales := other
		if header.Decision(neighbours[i].Row) == ref {
			scales = same
		}
		levels := roaring.New()
		for l, s := range scales {
			if s < 0 || consistentAt(m, header, q, neighbours, i, s) {
				levels.Add(uint32(l))
			}
		}
		neighbours[i].Levels = levels
	}
	return nil
}

func consistentAt(m metric.ValueDistance, header *dataset.Header, q dataset.Row, neighbours []index.Neighbour, i int, scale float64) bool {
	n := neighbours[i]
	decision := header.Decision(n.Row)
	for j := 1; j < len(neighbours); j++ {
		o := neighbours[j]
		if j == i || header.Decision(o.Row) == decision {
			continue
		}
		if o.Distance > n.Distance && !index.Tied(o.Distance, n.Distance) {
			continue
		}
		if inCube(m, q, n.Row, o.Row, scale) {
			return false
		}
	}
	return true
}

// inCube tells whether r lies in the cube between q and n shrunk towards q by scale.
func inCube(m metric.ValueDistance, q, n, r dataset.Row, scale float64) bool {
	for attr := 0; attr < m.Attributes(); attr++ {
		if m.Ordered(attr) {
			cq, cn, cr := m.Coordinate(q, attr), m.Coordinate(n, attr), m.Coordinate(r, attr)
			if !dataset.Missing(cq) && !dataset.Missing(cn) && !dataset.Missing(cr) {
				edge := cq + scale*(cn-cq)
				if cr < math.Min(cq, edge) || cr > math.Max(cq, edge) {
					return false
				}
				continue
			}
		}
		if m.ValueDist(r, q, attr) > scale*m.ValueDist(n, q, attr) {
			return false
		}
	}
	return true
}
