package metric

import (
	"context"
	"fmt"

	"github.com/awojna/Rseslib-sub001/dataset"
)

/*
Transformer maps rows of the header a metric was induced from into the
transformed layout the metric measures: one block of coordinates per
conditional attribute, followed by the decision code.

A Transformer is immutable and safe for concurrent use.
*/
type Transformer struct {
	raw         *dataset.Header
	transformed *dataset.Header
	positions   []int
	offsets     []int
	coders      []valueCoder
}

func newTransformer(raw *dataset.Header, positions []int, coders []valueCoder) *Transformer {
	t := &Transformer{raw: raw, positions: positions, coders: coders}
	t.offsets = make([]int, len(coders))
	h := &dataset.Header{}
	for i, c := range coders {
		t.offsets[i] = len(h.Attributes)
		a := raw.Attributes[positions[i]]
		if _, ok := c.(hammingCoder); ok {
			h.Attributes = append(h.Attributes, a)
			continue
		}
		if c.width() == 1 {
			h.Attributes = append(h.Attributes, dataset.Attribute{Name: a.Name, Kind: dataset.Numeric, Role: dataset.Conditional})
			continue
		}
		for d := 0; d < c.width(); d++ {
			name := fmt.Sprintf("%s[%s]", a.Name, raw.DecisionValue(d))
			h.Attributes = append(h.Attributes, dataset.Attribute{Name: name, Kind: dataset.Numeric, Role: dataset.Conditional})
		}
	}
	h.DecisionIndex = len(h.Attributes)
	h.Attributes = append(h.Attributes, raw.Attributes[raw.DecisionIndex])
	t.transformed = h
	return t
}

// Header returns the header of the rows the transformer accepts.
func (t *Transformer) Header() *dataset.Header {
	return t.raw
}

// TransformedHeader returns the header describing transformed rows.
func (t *Transformer) TransformedHeader() *dataset.Header {
	return t.transformed
}

/*
Transform returns a new row holding the transformed values of the given raw
row. The raw row is left untouched.
*/
func (t *Transformer) Transform(r dataset.Row) dataset.Row {
	result := make(dataset.Row, t.transformed.Len())
	for i, c := range t.coders {
		c.encode(r[t.positions[i]], result[t.offsets[i]:t.offsets[i]+c.width()])
	}
	result[t.transformed.DecisionIndex] = r[t.raw.DecisionIndex]
	return result
}

/*
TransformTable returns a table with the transformed rows of the given one, in
the same order.
*/
func (t *Transformer) TransformTable(ctx context.Context, table dataset.Table) (dataset.Table, error) {
	if !table.Header().Equal(t.raw) {
		return nil, fmt.Errorf("transforming table: header does not match the one of the metric")
	}
	rows, err := table.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("transforming table: %v", err)
	}
	transformed := make([]dataset.Row, len(rows))
	for i, r := range rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("transforming table: %w", err)
			}
		}
		transformed[i] = t.Transform(r)
	}
	return dataset.New(t.transformed, transformed), nil
}

func (t *Transformer) block(r dataset.Row, attr int) []float64 {
	return r[t.offsets[attr] : t.offsets[attr]+t.coders[attr].width()]
}
