package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/feature"
)

const whereFlagUsage = "restrict the set to the rows satisfying a condition, given as feature=value for discrete features or feature=a:b for the interval [a, b) of continuous ones (an empty end is unbounded); can be repeated"

/*
criteria parses conditions given with the where flag into criteria on the
features of the header.
*/
func criteria(header *dataset.Header, conditions []string) ([]feature.Criterion, error) {
	features := header.Features()
	result := make([]feature.Criterion, 0, len(conditions))
	for _, condition := range conditions {
		parts := strings.SplitN(condition, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("parsing condition %q: expected feature=value", condition)
		}
		var f feature.Feature
		for _, candidate := range features {
			if candidate.Name() == parts[0] {
				f = candidate
				break
			}
		}
		switch f := f.(type) {
		case *feature.DiscreteFeature:
			if ok, err := f.Valid(parts[1]); !ok {
				return nil, fmt.Errorf("parsing condition %q: %v", condition, err)
			}
			result = append(result, feature.NewDiscreteCriterion(f, parts[1]))
		case *feature.ContinuousFeature:
			a, b, err := interval(parts[1])
			if err != nil {
				return nil, fmt.Errorf("parsing condition %q: %v", condition, err)
			}
			result = append(result, feature.NewContinuousCriterion(f, a, b))
		default:
			return nil, fmt.Errorf("parsing condition %q: unknown feature %s", condition, parts[0])
		}
	}
	return result, nil
}

func interval(s string) (float64, float64, error) {
	bounds := strings.SplitN(s, ":", 2)
	if len(bounds) != 2 {
		return 0, 0, fmt.Errorf("expected an interval a:b, got %q", s)
	}
	a, b := math.Inf(-1), math.Inf(1)
	var err error
	if bounds[0] != "" {
		if a, err = strconv.ParseFloat(bounds[0], 64); err != nil {
			return 0, 0, fmt.Errorf("parsing interval start: %v", err)
		}
	}
	if bounds[1] != "" {
		if b, err = strconv.ParseFloat(bounds[1], 64); err != nil {
			return 0, 0, fmt.Errorf("parsing interval end: %v", err)
		}
	}
	if a >= b {
		return 0, 0, fmt.Errorf("empty interval [%v, %v)", a, b)
	}
	return a, b, nil
}

/*
subset applies the conditions of the where flag to the table.
*/
func (rcc *rootCmdConfig) subset(t dataset.Table, conditions []string) (dataset.Table, error) {
	cs, err := criteria(t.Header(), conditions)
	if err != nil {
		return nil, err
	}
	for _, c := range cs {
		rcc.Logf("Restricting set to rows where %v...", c)
		if t, err = t.SubsetWith(rcc.Context(), c); err != nil {
			return nil, fmt.Errorf("restricting set to rows where %v: %v", c, err)
		}
	}
	return t, nil
}
