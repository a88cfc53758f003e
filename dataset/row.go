package dataset

import "math"

/*
Row is a data object: one value per attribute of a Header, in header order.
Numeric attributes hold their value and nominal attributes the local code of
their value. A NaN value encodes a missing value.

Rows are read-only values: consumers never modify a row they did not create.
*/
type Row []float64

// Missing reports whether v encodes a missing value.
func Missing(v float64) bool {
	return math.IsNaN(v)
}

// MissingValue returns the value used to encode missing values.
func MissingValue() float64 {
	return math.NaN()
}

// Clone returns a copy of the row that can be modified freely.
func (r Row) Clone() Row {
	c := make(Row, len(r))
	copy(c, r)
	return c
}

// Equal reports whether both rows hold the same values, missing values
// being equal to each other.
func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] && !(Missing(r[i]) && Missing(o[i])) {
			return false
		}
	}
	return true
}
