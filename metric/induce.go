package metric

import (
	"context"
	"fmt"

	"github.com/awojna/Rseslib-sub001/dataset"
)

const minIntervals = 5

/*
New takes a context, a training table and options and induces a metric from
the table: the range of numeric attributes and, depending on the variant, the
decision distributions of attribute values. Only rows with a decision
contribute to decision distributions. All weights start at 1.

The returned metric accepts raw rows of the table's header until its
transformer is handed out.
*/
func New(ctx context.Context, table dataset.Table, opts Options) (*Weighted, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	header := table.Header()
	rows, err := table.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("inducing metric: %v", err)
	}
	decisions := header.NumDecisions()
	prior := decisionPrior(header, rows)
	positions := header.Conditional()
	coders := make([]valueCoder, len(positions))
	for i, position := range positions {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("inducing metric: %w", err)
		}
		if header.IsNumeric(position) {
			coders[i] = induceNumeric(header, rows, position, opts, prior)
			continue
		}
		if opts.Variant == CityHamming {
			coders[i] = hammingCoder{}
			continue
		}
		counts := make([][]float64, len(header.Attributes[position].Values))
		for code := range counts {
			counts[code] = make([]float64, decisions)
		}
		for _, r := range rows {
			v, d := r[position], header.Decision(r)
			if dataset.Missing(v) || d < 0 || int(v) < 0 || int(v) >= len(counts) {
				continue
			}
			counts[int(v)][d]++
		}
		coders[i] = newVDMCoder(counts, prior)
	}
	return newWeighted(opts, newTransformer(header, positions, coders)), nil
}

func induceNumeric(header *dataset.Header, rows []dataset.Row, position int, opts Options, prior []float64) valueCoder {
	var values, labeled []float64
	var labels []int
	for _, r := range rows {
		v := r[position]
		if dataset.Missing(v) {
			continue
		}
		values = append(values, v)
		if d := header.Decision(r); d >= 0 {
			labeled = append(labeled, v)
			labels = append(labels, d)
		}
	}
	switch opts.Variant {
	case DBVD:
		return newVicinityCoder(labeled, labels, opts.VicinitySize, len(prior))
	case IVD:
		intervals := opts.Intervals
		if intervals == 0 {
			intervals = len(prior)
			if intervals < minIntervals {
				intervals = minIntervals
			}
		}
		return newInterpolatedCoder(labeled, labels, intervals, prior)
	}
	return newRangeCoder(values)
}

// decisionPrior returns the relative frequency of every decision, uniform if
// no row has a decision.
func decisionPrior(header *dataset.Header, rows []dataset.Row) []float64 {
	prior := make([]float64, header.NumDecisions())
	var total float64
	for _, r := range rows {
		if d := header.Decision(r); d >= 0 && d < len(prior) {
			prior[d]++
			total++
		}
	}
	for i := range prior {
		if total > 0 {
			prior[i] /= total
		} else {
			prior[i] = 1 / float64(len(prior))
		}
	}
	return prior
}
