package metric

import (
	"context"
	"fmt"
	"math"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/props"
	"gonum.org/v1/gonum/floats"
)

// WeightingMethod selects how attribute weights are tuned.
type WeightingMethod string

const (
	// NoWeighting leaves the weights untouched.
	NoWeighting WeightingMethod = "None"
	// DistanceBased repeatedly increases the weight of attributes that
	// separate rows from their nearest row of another decision more than from
	// their nearest row of the same decision.
	DistanceBased WeightingMethod = "DistanceBased"
	// AccuracyBased weighs every attribute by how much the leave-one-out
	// accuracy of nearest neighbour classification using only that attribute
	// exceeds the frequency of the most common decision.
	AccuracyBased WeightingMethod = "AccuracyBased"

	// Property names read by WeightingFromProperties.
	PropertyWeightingMethod     = "weightingMethod"
	PropertyWeightingIterations = "weightingIterations"

	defaultWeightingIterations = 5

	learningRate     = 0.5
	convergenceLimit = 1e-3
	ratioEpsilon     = 1e-9
)

// Weighting configures Optimize.
type Weighting struct {
	Method     WeightingMethod
	Iterations int
}

/*
WeightingFromProperties reads the weighting configuration from properties.
Unset properties default to DistanceBased weighting with 5 iterations.
*/
func WeightingFromProperties(p props.Properties) (Weighting, error) {
	w := Weighting{Method: DistanceBased, Iterations: defaultWeightingIterations}
	m, err := p.OneOf(PropertyWeightingMethod, string(w.Method), string(NoWeighting), string(DistanceBased), string(AccuracyBased))
	if err != nil {
		return w, err
	}
	w.Method = WeightingMethod(m)
	w.Iterations, err = p.PositiveInt(PropertyWeightingIterations, w.Iterations)
	return w, err
}

/*
Optimize takes a context, a metric, a table of rows the metric accepts and a
weighting configuration and tunes the weights of the metric in place. Rows
with a missing decision are ignored. After tuning the weights sum to the
number of attributes.

An unknown method is returned as *props.ConfigurationError before any weight
changes. Cancellation is checked once per processed row; on cancellation the
weights are left as they were before the interrupted iteration.
*/
func Optimize(ctx context.Context, m *Weighted, table dataset.Table, w Weighting) error {
	switch w.Method {
	case NoWeighting:
		return nil
	case DistanceBased, AccuracyBased:
	default:
		return &props.ConfigurationError{Property: PropertyWeightingMethod, Value: string(w.Method), Reason: "unknown weighting method"}
	}
	rows, err := table.Rows(ctx)
	if err != nil {
		return fmt.Errorf("optimizing weights: %v", err)
	}
	header := table.Header()
	labeled := make([]dataset.Row, 0, len(rows))
	labels := make([]int, 0, len(rows))
	for _, r := range rows {
		if d := header.Decision(r); d >= 0 {
			labeled = append(labeled, r)
			labels = append(labels, d)
		}
	}
	if len(labeled) < 2 || m.Attributes() == 0 {
		return nil
	}
	if w.Method == AccuracyBased {
		return optimizeByAccuracy(ctx, m, labeled, labels, header.NumDecisions())
	}
	iterations := w.Iterations
	if iterations < 1 {
		iterations = defaultWeightingIterations
	}
	return optimizeByDistance(ctx, m, labeled, labels, iterations)
}

func optimizeByDistance(ctx context.Context, m *Weighted, rows []dataset.Row, labels []int, iterations int) error {
	attributes := m.Attributes()
	for it := 0; it < iterations; it++ {
		same := make([]float64, attributes)
		other := make([]float64, attributes)
		confused := 0
		for i, x := range rows {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("optimizing weights: %w", err)
			}
			s, o := nearestSameAndOther(m, rows, labels, i)
			if s < 0 || o < 0 {
				continue
			}
			if m.Distance(x, rows[o]) <= m.Distance(x, rows[s]) {
				confused++
			}
			for a := 0; a < attributes; a++ {
				same[a] += m.ValueDist(x, rows[s], a)
				other[a] += m.ValueDist(x, rows[o], a)
			}
		}
		if confused == 0 {
			return nil
		}
		ratios := make([]float64, attributes)
		for a := range ratios {
			ratios[a] = other[a] / (same[a] + ratioEpsilon)
		}
		mean := floats.Sum(ratios) / float64(attributes)
		if mean <= 0 {
			return nil
		}
		floats.Scale(1/mean, ratios)
		old := m.Weights()
		weights := make([]float64, attributes)
		for a := range weights {
			weights[a] = old[a] * ((1 - learningRate) + learningRate*ratios[a])
		}
		if !normalizeWeights(weights) {
			return nil
		}
		if err := m.SetWeights(weights); err != nil {
			return fmt.Errorf("optimizing weights: %v", err)
		}
		if maxRelativeChange(old, weights) < convergenceLimit {
			return nil
		}
	}
	return nil
}

// nearestSameAndOther returns the indices of the nearest row with the same
// decision as row i and of the nearest one with another decision, -1 if none.
func nearestSameAndOther(m *Weighted, rows []dataset.Row, labels []int, i int) (int, int) {
	s, o := -1, -1
	ds, do := math.Inf(1), math.Inf(1)
	for j, y := range rows {
		if j == i {
			continue
		}
		d := m.Distance(rows[i], y)
		if labels[j] == labels[i] {
			if d < ds {
				s, ds = j, d
			}
		} else if d < do {
			o, do = j, d
		}
	}
	return s, o
}

func optimizeByAccuracy(ctx context.Context, m *Weighted, rows []dataset.Row, labels []int, decisions int) error {
	attributes := m.Attributes()
	counts := make([]float64, decisions)
	for _, l := range labels {
		counts[l]++
	}
	baseline := floats.Max(counts) / float64(len(rows))
	weights := make([]float64, attributes)
	votes := make([]float64, decisions)
	for a := 0; a < attributes; a++ {
		correct := 0
		for i, x := range rows {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("optimizing weights: %w", err)
			}
			for d := range votes {
				votes[d] = 0
			}
			nearest := math.Inf(1)
			for j, y := range rows {
				if j == i {
					continue
				}
				d := m.ValueDist(x, y, a)
				if d < nearest {
					nearest = d
					for k := range votes {
						votes[k] = 0
					}
				}
				if d == nearest {
					votes[labels[j]]++
				}
			}
			if floats.MaxIdx(votes) == labels[i] {
				correct++
			}
		}
		weights[a] = math.Max(float64(correct)/float64(len(rows))-baseline, 0)
	}
	if !normalizeWeights(weights) {
		return nil
	}
	return m.SetWeights(weights)
}

// normalizeWeights scales weights to sum to their number. It returns false if
// they cannot be scaled.
func normalizeWeights(weights []float64) bool {
	sum := floats.Sum(weights)
	if !(sum > 0) || math.IsInf(sum, 1) {
		return false
	}
	floats.Scale(float64(len(weights))/sum, weights)
	return true
}

func maxRelativeChange(old, updated []float64) float64 {
	var result float64
	for i := range old {
		if old[i] > 0 {
			result = math.Max(result, math.Abs(updated[i]-old[i])/old[i])
		} else if updated[i] > 0 {
			return math.Inf(1)
		}
	}
	return result
}
