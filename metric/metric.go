/*
Package metric induces distance functions over the rows of a table with mixed
numeric and nominal attributes, and tunes the weights of their attributes.

A metric is induced from a training table. It transforms every row into a
layout where each conditional attribute becomes a block of coordinates
(normalized numeric values, nominal codes or decision distributions), so that
per-attribute value distances are cheap to compute, and aggregates weighted
per-attribute value distances into the distance between two rows.
*/
package metric

import (
	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/props"
)

/*
Metric is a distance function between rows: deterministic, symmetric,
non-negative and zero for rows with identical values.
*/
type Metric interface {
	Distance(a, b dataset.Row) float64
}

/*
ValueDistance gives access to the per-attribute value distances of a metric.
Attributes are numbered by their position among the conditional attributes.

Its ValueDist method returns the distance between the values two rows take
on an attribute.

Its MaxValueDist method returns the maximal value distance on an attribute,
which is also the distance between a missing and a present value.

Its Ordered method tells whether the values of an attribute lie on a line, so
that Coordinate gives their position on it.
*/
type ValueDistance interface {
	Metric
	Attributes() int
	ValueDist(a, b dataset.Row, attr int) float64
	MaxValueDist(attr int) float64
	Ordered(attr int) bool
	Coordinate(r dataset.Row, attr int) float64
}

// Variant selects how value distances are computed for each kind of attribute.
type Variant string

// Aggregation selects how weighted value distances are combined.
type Aggregation string

const (
	// CityHamming uses range-normalized differences for numeric attributes and
	// the Hamming distance for nominal ones.
	CityHamming Variant = "CityHamming"
	// CitySVD uses range-normalized differences for numeric attributes and the
	// simple value difference of decision distributions for nominal ones.
	CitySVD Variant = "CitySVD"
	// DBVD is CitySVD with numeric values mapped to the decision distribution
	// of the nearest training values.
	DBVD Variant = "DBVD"
	// IVD is CitySVD with numeric values mapped to decision distributions
	// interpolated between equal-width intervals.
	IVD Variant = "IVD"

	// City sums the weighted value distances.
	City Aggregation = "City"
	// Euclidean is the square root of the sum of squared weighted value distances.
	Euclidean Aggregation = "Euclidean"
	// Maximum takes the largest weighted value distance.
	Maximum Aggregation = "Maximum"
	// Indexed is the p-th root of the sum of p-th powers of weighted value distances.
	Indexed Aggregation = "Indexed"
)

const (
	// Property names read by OptionsFromProperties.
	PropertyMetric       = "metric"
	PropertyMetricType   = "metricType"
	PropertyMetricIndex  = "metricIndex"
	PropertyVicinitySize = "vicinitySizeForDBVDM"
	PropertyIntervals    = "intervalsForIVDM"

	defaultVicinitySize = 200
)

/*
Options configure the induction of a metric.

VicinitySize is the number of training values whose decisions describe a
numeric value under DBVD. Intervals is the number of equal-width intervals
of numeric attributes under IVD; zero picks the larger of 5 and the number of
decisions. P is the exponent of the Indexed aggregation and must be at least 1.
*/
type Options struct {
	Variant      Variant
	Aggregation  Aggregation
	P            float64
	VicinitySize int
	Intervals    int
}

// DefaultOptions returns the options used for unset properties.
func DefaultOptions() Options {
	return Options{
		Variant:      CitySVD,
		Aggregation:  City,
		P:            1,
		VicinitySize: defaultVicinitySize,
	}
}

/*
OptionsFromProperties reads metric options from properties, taking defaults
for unset ones. Invalid values are returned as *props.ConfigurationError.
*/
func OptionsFromProperties(p props.Properties) (Options, error) {
	opts := DefaultOptions()
	v, err := p.OneOf(PropertyMetric, string(opts.Variant), string(CityHamming), string(CitySVD), string(DBVD), string(IVD))
	if err != nil {
		return opts, err
	}
	opts.Variant = Variant(v)
	a, err := p.OneOf(PropertyMetricType, string(opts.Aggregation), string(City), string(Euclidean), string(Maximum), string(Indexed))
	if err != nil {
		return opts, err
	}
	opts.Aggregation = Aggregation(a)
	opts.P, err = p.Float(PropertyMetricIndex, opts.P)
	if err != nil {
		return opts, err
	}
	opts.VicinitySize, err = p.PositiveInt(PropertyVicinitySize, opts.VicinitySize)
	if err != nil {
		return opts, err
	}
	opts.Intervals, err = p.Int(PropertyIntervals, opts.Intervals)
	if err != nil {
		return opts, err
	}
	return opts, opts.Validate()
}

// Validate checks the options are consistent.
func (o Options) Validate() error {
	switch o.Variant {
	case CityHamming, CitySVD, DBVD, IVD:
	default:
		return &props.ConfigurationError{Property: PropertyMetric, Value: string(o.Variant), Reason: "unknown metric"}
	}
	switch o.Aggregation {
	case City, Euclidean, Maximum:
	case Indexed:
		if !(o.P >= 1) {
			return &props.ConfigurationError{Property: PropertyMetricIndex, Value: formatFloat(o.P), Reason: "must be at least 1 for the distance to be a metric"}
		}
	default:
		return &props.ConfigurationError{Property: PropertyMetricType, Value: string(o.Aggregation), Reason: "unknown metric type"}
	}
	if o.Variant == DBVD && o.VicinitySize < 1 {
		return &props.ConfigurationError{Property: PropertyVicinitySize, Value: formatInt(o.VicinitySize), Reason: "must be a positive integer"}
	}
	if o.Intervals < 0 {
		return &props.ConfigurationError{Property: PropertyIntervals, Value: formatInt(o.Intervals), Reason: "must not be negative"}
	}
	return nil
}
