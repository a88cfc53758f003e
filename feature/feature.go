/*
Package feature describes the attributes observed on the objects of a data
table: nominal attributes taking one value among a finite set and numeric
attributes taking any real value.
*/
package feature

import "fmt"

/*
Feature represents a property that can be observed
*/
type Feature interface {
	Name() string
	Valid(interface{}) (bool, error)
}

/*
DiscreteFeature represents a property that can be observed and that can only
take a value among a finite set. Each available value has a local code: its
position in the set.
*/
type DiscreteFeature struct {
	name            string
	availableValues []string
	codes           map[string]int
}

/*
ContinuousFeature represents a property that can be observed and that can take
a numeric value
*/
type ContinuousFeature struct {
	name string
}

/*
NewDiscreteFeature takes a name string and a slice of available value strings
and returns a discrete feature with the given names and available values.
Repeated values keep the code of their first occurrence.
*/
func NewDiscreteFeature(name string, availableValues []string) *DiscreteFeature {
	codes := make(map[string]int, len(availableValues))
	for i, v := range availableValues {
		if _, ok := codes[v]; !ok {
			codes[v] = i
		}
	}
	return &DiscreteFeature{name, availableValues, codes}
}

/*
NewContinuousFeature takes a name string and returns a continuous feature with
the given name.
*/
func NewContinuousFeature(name string) *ContinuousFeature {
	return &ContinuousFeature{name}
}

/*
Name returns a string with the name of the feature
*/
func (df *DiscreteFeature) Name() string {
	return df.name
}

/*
Valid receives an interface value and returns a boolean and an error. When the
value parameter is nil (undefined) or included in the available values of the
feature, the method returns true and nil. Otherwise it returns false and an
error describing the reason.
*/
func (df *DiscreteFeature) Valid(value interface{}) (bool, error) {
	if value == nil {
		return true, nil
	}
	vs, ok := value.(string)
	if !ok {
		return false, fmt.Errorf("discrete feature %s expects string value, got %T value", df.Name(), value)
	}
	if _, ok = df.codes[vs]; !ok {
		return false, fmt.Errorf("discrete feature %s got unknown value %s", df.Name(), vs)
	}
	return true, nil
}

/*
AvailableValues returns a string slice with the values available for the feature
*/
func (df *DiscreteFeature) AvailableValues() []string {
	return df.availableValues
}

/*
Code returns the local code of the given value and true, or -1 and false when
the value is not available for the feature.
*/
func (df *DiscreteFeature) Code(value string) (int, bool) {
	c, ok := df.codes[value]
	if !ok {
		return -1, false
	}
	return c, true
}

/*
Value returns the value with the given local code and true, or the empty
string and false when the code is out of range.
*/
func (df *DiscreteFeature) Value(code int) (string, bool) {
	if code < 0 || code >= len(df.availableValues) {
		return "", false
	}
	return df.availableValues[code], true
}

func (df *DiscreteFeature) String() string {
	return df.name
}

/*
Name returns a string with the name of the feature
*/
func (cf *ContinuousFeature) Name() string {
	return cf.name
}

/*
Valid receives an interface value and returns a boolean and an error. When the
value parameter is nil or a float64 it returns true and nil, otherwise it
returns false and an error describing the reason.
*/
func (cf *ContinuousFeature) Valid(value interface{}) (bool, error) {
	if value == nil {
		return true, nil
	}
	_, ok := value.(float64)
	if !ok {
		return false, fmt.Errorf("continuous feature %s expects float64 value, got %T value", cf.Name(), value)
	}
	return true, nil
}

func (cf *ContinuousFeature) String() string {
	return cf.name
}
