package index

import (
	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/metric"
	"github.com/awojna/Rseslib-sub001/metrics"
)

// Linear answers queries comparing the query with every row.
type Linear struct {
	metric metric.Metric
	rows   []dataset.Row
}

// NewLinear returns an index scanning the given rows under the metric.
func NewLinear(m metric.Metric, rows []dataset.Row) *Linear {
	return &Linear{m, rows}
}

func (l *Linear) Len() int {
	return len(l.rows)
}

func (l *Linear) Rows() []dataset.Row {
	return l.rows
}

func (l *Linear) KNearest(q dataset.Row, k int) ([]Neighbour, error) {
	return l.KNearestExcluding(q, k, -1, false)
}

func (l *Linear) KNearestWithTies(q dataset.Row, k int) ([]Neighbour, error) {
	return l.KNearestExcluding(q, k, -1, true)
}

/*
KNearestExcluding returns the k nearest rows to q other than the one with the
given ID, with the rows tied with the k-th one if ties is set.
*/
func (l *Linear) KNearestExcluding(q dataset.Row, k int, id int, ties bool) ([]Neighbour, error) {
	if len(l.rows) == 0 {
		return nil, ErrEmpty
	}
	candidates := make([]Neighbour, 0, len(l.rows))
	for i, r := range l.rows {
		if i == id {
			continue
		}
		candidates = append(candidates, Neighbour{Row: r, Distance: l.metric.Distance(q, r), ID: i})
	}
	metrics.VisitedRows.WithLabelValues("linear").Observe(float64(len(candidates)))
	return arrange(candidates, k, ties), nil
}
