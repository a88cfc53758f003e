package knn

// DataError is returned when a training table cannot produce a classifier.
type DataError string

func (e DataError) Error() string {
	return string(e)
}

const (
	// ErrEmptyTable is returned when the training table has no rows.
	ErrEmptyTable = DataError("training table has no rows")
	// ErrNoDecisions is returned when every training row misses its decision.
	ErrNoDecisions = DataError("every training row misses its decision")
	// ErrAllValuesMissing is returned when every conditional value of the
	// training rows is missing.
	ErrAllValuesMissing = DataError("every conditional value of the training rows is missing")
	// ErrNotReady is returned when querying a classifier that was not fully built.
	ErrNotReady = DataError("classifier is not ready")
)
