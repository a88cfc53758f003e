package metric

import (
	"fmt"

	"github.com/awojna/Rseslib-sub001/dataset"
)

/*
State is the serializable content of an induced metric. Restoring it against
the header it was induced from gives back an equivalent metric.
*/
type State struct {
	Variant     Variant
	Aggregation Aggregation
	P           float64
	Weights     []float64
	Attributes  []AttributeState
}

// AttributeState is the serializable content of the statistics of one attribute.
type AttributeState struct {
	Kind          string
	Min           float64
	Scale         float64
	Distributions [][]float64
	Prior         []float64
	Values        []float64
	Labels        []int
	Vicinity      int
	Decisions     int
}

// State returns the serializable state of the metric.
func (m *Weighted) State() State {
	s := State{
		Variant:     m.variant,
		Aggregation: m.aggregation,
		P:           m.p,
		Weights:     m.Weights(),
		Attributes:  make([]AttributeState, len(m.transformer.coders)),
	}
	for i, c := range m.transformer.coders {
		s.Attributes[i] = c.state()
	}
	return s
}

/*
Restore takes the header a metric was induced from and the metric's state and
returns the metric. The returned metric accepts raw rows until its
transformer is handed out.
*/
func Restore(header *dataset.Header, s State) (*Weighted, error) {
	opts := Options{Variant: s.Variant, Aggregation: s.Aggregation, P: s.P, VicinitySize: 1}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("restoring metric: %v", err)
	}
	positions := header.Conditional()
	if len(s.Attributes) != len(positions) {
		return nil, fmt.Errorf("restoring metric: expected state for %d attributes, got %d", len(positions), len(s.Attributes))
	}
	decisions := header.NumDecisions()
	coders := make([]valueCoder, len(positions))
	for i, as := range s.Attributes {
		var c valueCoder
		switch as.Kind {
		case rangeKind:
			c = &rangeCoder{as.Min, as.Scale}
		case hammingKind:
			c = hammingCoder{}
		case vdmKind:
			c = &vdmCoder{as.Distributions, as.Prior}
		case vicinityKind:
			if len(as.Values) != len(as.Labels) || as.Vicinity < 1 {
				return nil, fmt.Errorf("restoring metric: inconsistent vicinity state for attribute %d", i)
			}
			c = newVicinityCoder(as.Values, as.Labels, as.Vicinity, as.Decisions)
		case interpolatedKind:
			if len(as.Distributions) == 0 || !(as.Scale > 0) {
				return nil, fmt.Errorf("restoring metric: inconsistent interval state for attribute %d", i)
			}
			c = &interpolatedCoder{as.Min, as.Scale, as.Distributions}
		default:
			return nil, fmt.Errorf("restoring metric: unknown attribute kind %q", as.Kind)
		}
		if c.width() != 1 && c.width() != decisions {
			return nil, fmt.Errorf("restoring metric: attribute %d has %d coordinates for %d decisions", i, c.width(), decisions)
		}
		coders[i] = c
	}
	m := newWeighted(opts, newTransformer(header, positions, coders))
	if err := m.SetWeights(s.Weights); err != nil {
		return nil, fmt.Errorf("restoring metric: %v", err)
	}
	return m, nil
}
