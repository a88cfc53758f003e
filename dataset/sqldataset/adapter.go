package sqldataset

import "context"

/*
Adapter is an interface providing the methods
needed to store and retrieve rows on a database backend.

Raw rows are maps of column names to values: an int referencing the
nominal value table for nominal columns, a float64 for numeric columns.
Columns with missing values are absent from the map.
*/
type Adapter interface {
	ColumnName(string) (string, error)

	CreateNominalValuesTable(context.Context) error
	CreateRowTable(ctx context.Context, nominalColumns, numericColumns []string) error

	AddNominalValues(context.Context, []string) (int, error)
	ListNominalValues(context.Context) (map[int]string, error)

	AddRows(ctx context.Context, rawRows []map[string]interface{}, nominalColumns, numericColumns []string) (int, error)
	IterateOnRows(ctx context.Context, nominalColumns, numericColumns []string, lambda func(int, map[string]interface{}) (bool, error)) error

	Close() error
}
