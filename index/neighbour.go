/*
Package index finds the nearest rows to a query under a metric, either with a
dual-pivot metric tree or with a linear scan.

Search results follow one layout: slot 0 holds a placeholder Neighbour and
slots 1 to k hold the k nearest rows in ascending (distance, ID) order. When
ties are requested, every further row whose distance is tied with the k-th one
is appended. If k is not lower than the number of candidate rows, all of them
are returned.
*/
package index

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/awojna/Rseslib-sub001/dataset"
)

/*
Neighbour is a row found by a search together with its distance to the query
and its ID, the position of the row in the indexed slice.

Consistent and Levels are per-query annotations set by neighbour filters:
whether the neighbour is consistent with the others, and the set of
parameterised filter levels at which it is.
*/
type Neighbour struct {
	Row        dataset.Row
	Distance   float64
	ID         int
	Consistent bool
	Levels     *roaring.Bitmap
}

// Error is the type of the errors of the package.
type Error string

func (e Error) Error() string {
	return string(e)
}

// ErrEmpty is returned when searching an index without rows.
const ErrEmpty = Error("index has no rows to search")

const tieTolerance = 1e-9

/*
Tied reports whether two distances are equal up to the relative tolerance
used to group rows at the same distance.
*/
func Tied(a, b float64) bool {
	return math.Abs(a-b) <= tieTolerance*(1+math.Max(math.Abs(a), math.Abs(b)))
}

// within returns a distance not lower than any distance tied with d.
func within(d float64) float64 {
	return d + 2*tieTolerance*(1+math.Abs(d))
}

// Less orders neighbours by distance, then by ID.
func Less(a, b Neighbour) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

/*
Index is a structure answering nearest neighbour queries over a fixed slice
of rows. Implementations are safe for concurrent queries.
*/
type Index interface {
	KNearest(q dataset.Row, k int) ([]Neighbour, error)
	KNearestWithTies(q dataset.Row, k int) ([]Neighbour, error)
	KNearestExcluding(q dataset.Row, k int, id int, ties bool) ([]Neighbour, error)
	Len() int
	Rows() []dataset.Row
}

// arrange sorts the candidates and lays them out as a search result.
func arrange(candidates []Neighbour, k int, ties bool) []Neighbour {
	sort.Slice(candidates, func(i, j int) bool { return Less(candidates[i], candidates[j]) })
	n := k
	if n < 0 {
		n = 0
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	if ties && n > 0 {
		kth := candidates[n-1].Distance
		for n < len(candidates) && Tied(candidates[n].Distance, kth) {
			n++
		}
	}
	result := make([]Neighbour, 1, n+1)
	return append(result, candidates[:n]...)
}
