/*
Package inputsample provides an implementation of feature.Sample whose values
are read from an io.Reader, used to classify single objects interactively.
*/
package inputsample

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/awojna/Rseslib-sub001/feature"
)

/*
FeatureValueRequester represents a way to ask
for feature values and reject the given values.
*/
type FeatureValueRequester interface {
	RequestValueFor(feature.Feature) error
	RejectValueFor(feature.Feature, interface{}) error
}

type readSample struct {
	obtainedValues map[string]interface{}
	missingValue   string
	scanner        *bufio.Scanner
	requester      FeatureValueRequester
	features       map[string]feature.Feature
}

/*
New takes an io.Reader, a slice of features, a FeatureValueRequester and the
string coding a missing value and returns a feature.Sample.

The returned Sample's ValueFor method requests each value with the
FeatureValueRequester the first time it is needed and then reads lines from
the reader until one holds a valid value: a float64 number for a
feature.ContinuousFeature, one of the available values for a
feature.DiscreteFeature, or the missing value string. Every other line is
rejected with the requester's RejectValueFor method. Obtained values are
remembered, so each feature is read at most once.
*/
func New(r io.Reader, features []feature.Feature, requester FeatureValueRequester, missingValue string) feature.Sample {
	byName := make(map[string]feature.Feature, len(features))
	for _, f := range features {
		byName[f.Name()] = f
	}
	return &readSample{make(map[string]interface{}), missingValue, bufio.NewScanner(r), requester, byName}
}

func (rs *readSample) ValueFor(ctx context.Context, f feature.Feature) (interface{}, error) {
	if value, ok := rs.obtainedValues[f.Name()]; ok {
		return value, nil
	}
	known, ok := rs.features[f.Name()]
	if !ok {
		return nil, fmt.Errorf("have no information about feature %s, do not know how to read its value", f.Name())
	}
	var parse func(string) (interface{}, bool)
	switch known := known.(type) {
	case *feature.ContinuousFeature:
		parse = func(line string) (interface{}, bool) {
			v, err := strconv.ParseFloat(line, 64)
			return v, err == nil
		}
	case *feature.DiscreteFeature:
		parse = func(line string) (interface{}, bool) {
			_, ok := known.Code(line)
			return line, ok
		}
	default:
		return nil, fmt.Errorf("do not know how to read a value for features of type %T", known)
	}
	if err := rs.requester.RequestValueFor(known); err != nil {
		return nil, err
	}
	value, err := rs.read(ctx, known, parse)
	if err != nil {
		return nil, err
	}
	rs.obtainedValues[f.Name()] = value
	return value, nil
}

func (rs *readSample) read(ctx context.Context, f feature.Feature, parse func(string) (interface{}, bool)) (interface{}, error) {
	for rs.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := rs.scanner.Text()
		if line == rs.missingValue {
			return nil, nil
		}
		if v, ok := parse(line); ok {
			return v, nil
		}
		if err := rs.requester.RejectValueFor(f, line); err != nil {
			return nil, err
		}
	}
	if err := rs.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}
