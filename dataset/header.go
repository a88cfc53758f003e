package dataset

import (
	"context"
	"fmt"
	"strconv"

	"github.com/awojna/Rseslib-sub001/feature"
)

// Kind tells how the values of an attribute are compared.
type Kind string

// Role tells whether an attribute describes objects or is the one to predict.
type Role string

const (
	// Numeric attributes take real values.
	Numeric Kind = "numeric"
	// Nominal attributes take one value among a finite set, encoded by its local code.
	Nominal Kind = "nominal"

	// Conditional attributes describe the objects.
	Conditional Role = "conditional"
	// Decision is the role of the attribute to predict.
	Decision Role = "decision"
)

/*
Attribute describes one position of the rows of a table. Values lists the
legal values of a nominal attribute; the local code of a value is its index
in Values.
*/
type Attribute struct {
	Name   string
	Kind   Kind
	Role   Role
	Values []string
}

/*
Header is the attribute space of a table: the ordered attributes of its rows,
exactly one of which is the decision. A header is fixed for the lifetime of a
table and of every metric built against it.
*/
type Header struct {
	Attributes    []Attribute
	DecisionIndex int
}

/*
NewHeader takes a slice of features and the name of the decision feature and
returns a header with one attribute per feature, in the same order. The
decision feature must be discrete.
*/
func NewHeader(features []feature.Feature, decision string) (*Header, error) {
	h := &Header{DecisionIndex: -1}
	for i, f := range features {
		a := Attribute{Name: f.Name(), Role: Conditional}
		switch f := f.(type) {
		case *feature.ContinuousFeature:
			a.Kind = Numeric
		case *feature.DiscreteFeature:
			a.Kind = Nominal
			a.Values = append([]string(nil), f.AvailableValues()...)
		default:
			return nil, fmt.Errorf("unknown feature type %T for %s", f, f.Name())
		}
		if f.Name() == decision {
			if a.Kind != Nominal {
				return nil, fmt.Errorf("decision feature %s must be discrete", decision)
			}
			a.Role = Decision
			h.DecisionIndex = i
		}
		h.Attributes = append(h.Attributes, a)
	}
	if h.DecisionIndex < 0 {
		return nil, fmt.Errorf("decision feature '%s' is not defined", decision)
	}
	return h, nil
}

// Len returns the number of attributes, decision included.
func (h *Header) Len() int {
	return len(h.Attributes)
}

// Attribute returns the i-th attribute.
func (h *Header) Attribute(i int) Attribute {
	return h.Attributes[i]
}

// IsNumeric reports whether the i-th attribute is numeric.
func (h *Header) IsNumeric(i int) bool {
	return h.Attributes[i].Kind == Numeric
}

// IsNominal reports whether the i-th attribute is nominal.
func (h *Header) IsNominal(i int) bool {
	return h.Attributes[i].Kind == Nominal
}

// Conditional returns the indices of the conditional attributes in order.
func (h *Header) Conditional() []int {
	result := make([]int, 0, len(h.Attributes)-1)
	for i, a := range h.Attributes {
		if a.Role == Conditional {
			result = append(result, i)
		}
	}
	return result
}

// NumDecisions returns the number of decision values.
func (h *Header) NumDecisions() int {
	return len(h.Attributes[h.DecisionIndex].Values)
}

// DecisionValue returns the name of the decision with the given local code.
func (h *Header) DecisionValue(code int) string {
	values := h.Attributes[h.DecisionIndex].Values
	if code < 0 || code >= len(values) {
		return "?"
	}
	return values[code]
}

// Decision returns the local code of the decision of the row, or -1 if missing.
func (h *Header) Decision(r Row) int {
	v := r[h.DecisionIndex]
	if Missing(v) {
		return -1
	}
	return int(v)
}

/*
Equal reports whether both headers describe the same attributes in the same
order with the same roles and values.
*/
func (h *Header) Equal(o *Header) bool {
	if h == nil || o == nil {
		return h == o
	}
	if h.DecisionIndex != o.DecisionIndex || len(h.Attributes) != len(o.Attributes) {
		return false
	}
	for i, a := range h.Attributes {
		b := o.Attributes[i]
		if a.Name != b.Name || a.Kind != b.Kind || a.Role != b.Role || len(a.Values) != len(b.Values) {
			return false
		}
		for j := range a.Values {
			if a.Values[j] != b.Values[j] {
				return false
			}
		}
	}
	return true
}

/*
Features returns one feature per attribute, in header order.
*/
func (h *Header) Features() []feature.Feature {
	result := make([]feature.Feature, len(h.Attributes))
	for i, a := range h.Attributes {
		if a.Kind == Numeric {
			result[i] = feature.NewContinuousFeature(a.Name)
		} else {
			result[i] = feature.NewDiscreteFeature(a.Name, a.Values)
		}
	}
	return result
}

/*
Encode takes a context and a feature.Sample and returns the row holding the
sample's values for every attribute of the header. Undefined values become
missing values. An error is returned if a value cannot be obtained or is not
valid for its attribute.
*/
func (h *Header) Encode(ctx context.Context, s feature.Sample) (Row, error) {
	row := make(Row, len(h.Attributes))
	features := h.Features()
	for i, f := range features {
		v, err := s.ValueFor(ctx, f)
		if err != nil {
			return nil, err
		}
		row[i], err = h.EncodeValue(i, v)
		if err != nil {
			return nil, err
		}
	}
	return row, nil
}

/*
EncodeValue returns the row value for the given value of the i-th attribute:
nil is missing, numeric attributes take float64 values (or numeric strings)
and nominal attributes take one of their values as a string.
*/
func (h *Header) EncodeValue(i int, v interface{}) (float64, error) {
	a := h.Attributes[i]
	if v == nil {
		return MissingValue(), nil
	}
	if a.Kind == Numeric {
		switch v := v.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return 0, fmt.Errorf("converting %s to float64 for %s: %v", v, a.Name, err)
			}
			return f, nil
		}
		return 0, fmt.Errorf("numeric attribute %s expects float64 value, got %T value", a.Name, v)
	}
	s := fmt.Sprintf("%v", v)
	for code, av := range a.Values {
		if av == s {
			return float64(code), nil
		}
	}
	return 0, fmt.Errorf("nominal attribute %s got unknown value %s", a.Name, s)
}

/*
DecodeValue returns the value of the i-th attribute held in a row: nil for
missing values, a float64 for numeric attributes and a string for nominal ones.
*/
func (h *Header) DecodeValue(i int, v float64) interface{} {
	if Missing(v) {
		return nil
	}
	a := h.Attributes[i]
	if a.Kind == Numeric {
		return v
	}
	code := int(v)
	if code < 0 || code >= len(a.Values) {
		return nil
	}
	return a.Values[code]
}
