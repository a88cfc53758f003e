package metric

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/awojna/Rseslib-sub001/dataset"
)

/*
Weighted is an induced metric: weighted per-attribute value distances
aggregated as configured. Until its transformer is handed out with
TransformationOutside, it accepts raw rows and transforms them on every call;
afterwards it expects rows transformed by that transformer.

Weights may only be changed before the metric is shared by concurrent readers.
*/
type Weighted struct {
	variant     Variant
	aggregation Aggregation
	p           float64
	weights     []float64
	transformer *Transformer
	handedOff   atomic.Bool
}

func newWeighted(opts Options, transformer *Transformer) *Weighted {
	weights := make([]float64, len(transformer.coders))
	for i := range weights {
		weights[i] = 1
	}
	return &Weighted{
		variant:     opts.Variant,
		aggregation: opts.Aggregation,
		p:           opts.P,
		weights:     weights,
		transformer: transformer,
	}
}

/*
TransformationOutside returns the transformer of the metric the first time it
is called and nil on later calls. From the first call on, the metric expects
transformed rows.
*/
func (m *Weighted) TransformationOutside() *Transformer {
	if m.handedOff.CompareAndSwap(false, true) {
		return m.transformer
	}
	return nil
}

// Header returns the header of the raw rows the metric was induced from.
func (m *Weighted) Header() *dataset.Header {
	return m.transformer.raw
}

// Variant returns the way value distances are computed.
func (m *Weighted) Variant() Variant {
	return m.variant
}

// Aggregation returns the way weighted value distances are combined.
func (m *Weighted) Aggregation() Aggregation {
	return m.aggregation
}

// Attributes returns the number of conditional attributes.
func (m *Weighted) Attributes() int {
	return len(m.weights)
}

// Weights returns a copy of the attribute weights.
func (m *Weighted) Weights() []float64 {
	return append([]float64(nil), m.weights...)
}

/*
SetWeights replaces the attribute weights. It returns an error if the number
of weights does not match the number of attributes or a weight is negative.
*/
func (m *Weighted) SetWeights(weights []float64) error {
	if len(weights) != len(m.weights) {
		return fmt.Errorf("expected %d weights, got %d", len(m.weights), len(weights))
	}
	for i, w := range weights {
		if !(w >= 0) || math.IsInf(w, 1) {
			return fmt.Errorf("weight %d must be a non-negative number, got %v", i, w)
		}
	}
	copy(m.weights, weights)
	return nil
}

func (m *Weighted) prepare(rows ...dataset.Row) []dataset.Row {
	if !m.handedOff.Load() {
		for i, r := range rows {
			rows[i] = m.transformer.Transform(r)
		}
	}
	return rows
}

/*
Distance returns the distance between two rows.
*/
func (m *Weighted) Distance(a, b dataset.Row) float64 {
	rows := m.prepare(a, b)
	a, b = rows[0], rows[1]
	var result float64
	for attr, w := range m.weights {
		d := w * m.valueDist(a, b, attr)
		switch m.aggregation {
		case Euclidean:
			result += d * d
		case Maximum:
			if d > result {
				result = d
			}
		case Indexed:
			result += math.Pow(d, m.p)
		default:
			result += d
		}
	}
	switch m.aggregation {
	case Euclidean:
		return math.Sqrt(result)
	case Indexed:
		if m.p != 1 {
			return math.Pow(result, 1/m.p)
		}
	}
	return result
}

/*
ValueDist returns the unweighted distance between the values of two rows on
the given attribute: 0 if both are missing, the maximal value distance of the
attribute if only one is.
*/
func (m *Weighted) ValueDist(a, b dataset.Row, attr int) float64 {
	rows := m.prepare(a, b)
	return m.valueDist(rows[0], rows[1], attr)
}

func (m *Weighted) valueDist(a, b dataset.Row, attr int) float64 {
	ba, bb := m.transformer.block(a, attr), m.transformer.block(b, attr)
	ma, mb := dataset.Missing(ba[0]), dataset.Missing(bb[0])
	switch {
	case ma && mb:
		return 0
	case ma || mb:
		return m.transformer.coders[attr].maxDistance()
	}
	return m.transformer.coders[attr].distance(ba, bb)
}

// MaxValueDist returns the maximal value distance on the given attribute.
func (m *Weighted) MaxValueDist(attr int) float64 {
	return m.transformer.coders[attr].maxDistance()
}

// Ordered tells whether Coordinate positions the values of the attribute on a line.
func (m *Weighted) Ordered(attr int) bool {
	return m.transformer.coders[attr].ordered()
}

/*
Coordinate returns the first transformed coordinate of the row on the given
attribute, NaN if its value is missing.
*/
func (m *Weighted) Coordinate(r dataset.Row, attr int) float64 {
	return m.transformer.block(m.prepare(r)[0], attr)[0]
}
