package dataset

import (
	"context"
	"fmt"

	"github.com/awojna/Rseslib-sub001/feature"
)

type sample struct {
	featureValues map[string]interface{}
}

/*
NewSample takes a map of feature string names to values and returns a
feature.Sample. Features not in the map have undefined values.
*/
func NewSample(featureValues map[string]interface{}) feature.Sample {
	return &sample{featureValues}
}

func (s *sample) ValueFor(_ context.Context, f feature.Feature) (interface{}, error) {
	return s.featureValues[f.Name()], nil
}

func (s *sample) String() string {
	return fmt.Sprintf("[%v]", s.featureValues)
}

/*
RowSample presents a row of a header as a feature.Sample, so criteria and
other sample consumers can work on rows.
*/
type RowSample struct {
	Header *Header
	Row    Row
}

/*
ValueFor returns the value the row holds for the attribute with the name of
the given feature, or nil if it is missing or the header has no such attribute.
*/
func (rs *RowSample) ValueFor(_ context.Context, f feature.Feature) (interface{}, error) {
	for i, a := range rs.Header.Attributes {
		if a.Name == f.Name() {
			return rs.Header.DecodeValue(i, rs.Row[i]), nil
		}
	}
	return nil, nil
}

func (rs *RowSample) String() string {
	values := make(map[string]interface{}, len(rs.Row))
	for i, a := range rs.Header.Attributes {
		values[a.Name] = rs.Header.DecodeValue(i, rs.Row[i])
	}
	return fmt.Sprintf("[%v]", values)
}
