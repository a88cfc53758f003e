package knn

import (
	"strconv"

	"github.com/awojna/Rseslib-sub001/index"
	"github.com/awojna/Rseslib-sub001/metric"
	"github.com/awojna/Rseslib-sub001/props"
)

// Voting selects how neighbours weigh their decisions.
type Voting string

const (
	// Equal gives every neighbour the same vote.
	Equal Voting = "Equal"
	// InverseDistance weighs a vote by the inverse of the neighbour's distance.
	InverseDistance Voting = "InverseDistance"
	// InverseSquareDistance weighs a vote by the inverse of the squared distance.
	InverseSquareDistance Voting = "InverseSquareDistance"
)

const (
	// Property names read by OptionsFromProperties.
	PropertyIndexing      = "indexing"
	PropertyLearnOptimalK = "learnOptimalK"
	PropertyMaxK          = "maxK"
	PropertyK             = "k"
	PropertyFilter        = "filterNeighboursUsingRules"
	PropertyVoting        = "voting"

	defaultMaxK = 100
)

// Logger receives progress messages of a classifier construction.
type Logger interface {
	Logf(format string, a ...interface{})
}

type nopLogger struct{}

func (nopLogger) Logf(string, ...interface{}) {}

/*
Options configure the construction of a classifier.

LearnOptimalK makes the classifier pick k in 1..MaxK by leave-one-out
accuracy on the training rows, otherwise K is used. Indexing selects a
metric tree over a linear scan. Filter enables the rule based consistency
filter of neighbours.
*/
type Options struct {
	Metric        metric.Options
	Weighting     metric.Weighting
	Indexing      bool
	Tree          index.Options
	LearnOptimalK bool
	MaxK          int
	K             int
	Voting        Voting
	Filter        bool
	Logger        Logger
}

// DefaultOptions returns the options used for unset properties.
func DefaultOptions() Options {
	return Options{
		Metric:        metric.DefaultOptions(),
		Weighting:     metric.Weighting{Method: metric.DistanceBased, Iterations: 5},
		Indexing:      true,
		Tree:          index.Options{LeafSize: index.DefaultLeafSize},
		LearnOptimalK: true,
		MaxK:          defaultMaxK,
		K:             1,
		Voting:        InverseSquareDistance,
	}
}

/*
OptionsFromProperties reads classifier options from properties, taking
defaults for unset ones. Invalid values are returned as
*props.ConfigurationError.
*/
func OptionsFromProperties(p props.Properties) (Options, error) {
	opts := DefaultOptions()
	var err error
	if opts.Metric, err = metric.OptionsFromProperties(p); err != nil {
		return opts, err
	}
	if opts.Weighting, err = metric.WeightingFromProperties(p); err != nil {
		return opts, err
	}
	if opts.Tree, err = index.OptionsFromProperties(p); err != nil {
		return opts, err
	}
	if opts.Indexing, err = p.Bool(PropertyIndexing, opts.Indexing); err != nil {
		return opts, err
	}
	if opts.LearnOptimalK, err = p.Bool(PropertyLearnOptimalK, opts.LearnOptimalK); err != nil {
		return opts, err
	}
	if opts.MaxK, err = p.PositiveInt(PropertyMaxK, opts.MaxK); err != nil {
		return opts, err
	}
	if opts.K, err = p.PositiveInt(PropertyK, opts.K); err != nil {
		return opts, err
	}
	if opts.Filter, err = p.Bool(PropertyFilter, opts.Filter); err != nil {
		return opts, err
	}
	v, err := p.OneOf(PropertyVoting, string(opts.Voting), string(Equal), string(InverseDistance), string(InverseSquareDistance))
	if err != nil {
		return opts, err
	}
	opts.Voting = Voting(v)
	return opts, opts.Validate()
}

// Validate checks the options are consistent.
func (o Options) Validate() error {
	if err := o.Metric.Validate(); err != nil {
		return err
	}
	if err := validateVoting(o.Voting); err != nil {
		return err
	}
	if o.MaxK < 1 {
		return &props.ConfigurationError{Property: PropertyMaxK, Value: strconv.Itoa(o.MaxK), Reason: "must be a positive integer"}
	}
	if o.K < 1 || o.K > o.MaxK {
		return &props.ConfigurationError{Property: PropertyK, Value: strconv.Itoa(o.K), Reason: "must be between 1 and " + PropertyMaxK}
	}
	return nil
}

func validateVoting(v Voting) error {
	switch v {
	case Equal, InverseDistance, InverseSquareDistance:
		return nil
	}
	return &props.ConfigurationError{Property: PropertyVoting, Value: string(v), Reason: "unknown voting method"}
}
