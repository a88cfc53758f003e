package sqldataset

import (
	"context"
	"fmt"

	"github.com/awojna/Rseslib-sub001/dataset"
)

/*
Set is a database-backed collection of rows for a header.

Its Write method takes rows of the header and stores them, returning the
number of rows actually stored.

Its Read method streams the stored rows.

Its Table method reads every stored row into an in-memory dataset.Table.
*/
type Set interface {
	Header() *dataset.Header
	Write(context.Context, []dataset.Row) (int, error)
	Read(context.Context) (<-chan dataset.Row, <-chan error)
	Table(context.Context) (dataset.Table, error)
}

type dbSet struct {
	db             Adapter
	header         *dataset.Header
	columns        []string
	nominalValues  map[int]string
	nominalIDs     map[string]int
	nominalColumns []string
	numericColumns []string
}

/*
Open takes an Adapter to a db backend and a header and returns a Set
backed by the given adapter or an error if no set is available through it.

This function expects the adapter to have the row and nominal value
tables already created.
*/
func Open(ctx context.Context, dbAdapter Adapter, header *dataset.Header) (Set, error) {
	ss := &dbSet{db: dbAdapter, header: header}
	err := ss.initColumns()
	if err != nil {
		return nil, err
	}
	err = ss.init(ctx)
	if err != nil {
		return nil, err
	}
	return ss, nil
}

/*
Create takes an Adapter and a header and returns a Set backed by the given
adapter or an error.

This function will ensure that the row and nominal value tables are created
on the database, and that the nominal value table has all the values of the
nominal attributes of the header.
*/
func Create(ctx context.Context, dbAdapter Adapter, header *dataset.Header) (Set, error) {
	ss := &dbSet{db: dbAdapter, header: header}
	err := ss.initColumns()
	if err != nil {
		return nil, err
	}
	err = ss.initDB(ctx)
	if err != nil {
		return nil, err
	}
	return ss, nil
}

func (ss *dbSet) Header() *dataset.Header {
	return ss.header
}

func (ss *dbSet) Write(ctx context.Context, rows []dataset.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	rawRows := make([]map[string]interface{}, 0, len(rows))
	for i, r := range rows {
		rr, err := ss.newRawRow(r)
		if err != nil {
			return 0, fmt.Errorf("converting row %d: %v", i, err)
		}
		rawRows = append(rawRows, rr)
	}
	return ss.db.AddRows(ctx, rawRows, ss.nominalColumns, ss.numericColumns)
}

func (ss *dbSet) Read(ctx context.Context) (<-chan dataset.Row, <-chan error) {
	rowStream := make(chan dataset.Row)
	errStream := make(chan error, 1)
	go func() {
		defer close(rowStream)
		defer close(errStream)
		err := ss.db.IterateOnRows(
			ctx,
			ss.nominalColumns,
			ss.numericColumns,
			func(n int, rr map[string]interface{}) (bool, error) {
				r, err := ss.rowFromRaw(rr)
				if err != nil {
					return false, fmt.Errorf("reading row %d: %v", n, err)
				}
				select {
				case <-ctx.Done():
					return false, ctx.Err()
				case rowStream <- r:
				}
				return true, nil
			})
		if err != nil {
			errStream <- err
		}
	}()
	return rowStream, errStream
}

func (ss *dbSet) Table(ctx context.Context) (dataset.Table, error) {
	var rows []dataset.Row
	rowStream, errStream := ss.Read(ctx)
	for r := range rowStream {
		rows = append(rows, r)
	}
	if err := <-errStream; err != nil {
		return nil, err
	}
	return dataset.New(ss.header, rows), nil
}

func (ss *dbSet) initDB(ctx context.Context) error {
	err := ss.db.CreateNominalValuesTable(ctx)
	if err != nil {
		return err
	}
	err = ss.db.CreateRowTable(ctx, ss.nominalColumns, ss.numericColumns)
	if err != nil {
		return err
	}
	ss.nominalValues, err = ss.db.ListNominalValues(ctx)
	if err != nil {
		return err
	}
	_, err = ss.db.AddNominalValues(ctx, ss.unavailableNominalValues())
	if err != nil {
		return err
	}
	return ss.init(ctx)
}

func (ss *dbSet) unavailableNominalValues() []string {
	present := make(map[string]bool)
	for _, v := range ss.nominalValues {
		present[v] = true
	}
	var result []string
	for _, a := range ss.header.Attributes {
		for _, v := range a.Values {
			if !present[v] {
				present[v] = true
				result = append(result, v)
			}
		}
	}
	return result
}

func (ss *dbSet) init(ctx context.Context) error {
	var err error
	ss.nominalValues, err = ss.db.ListNominalValues(ctx)
	if err != nil {
		return err
	}
	ss.nominalIDs = make(map[string]int)
	for k, v := range ss.nominalValues {
		ss.nominalIDs[v] = k
	}
	return nil
}

func (ss *dbSet) newRawRow(r dataset.Row) (map[string]interface{}, error) {
	if len(r) != ss.header.Len() {
		return nil, fmt.Errorf("expected %d values, got %d", ss.header.Len(), len(r))
	}
	rr := make(map[string]interface{})
	for i, a := range ss.header.Attributes {
		if dataset.Missing(r[i]) {
			continue
		}
		if a.Kind == dataset.Numeric {
			rr[ss.columns[i]] = r[i]
			continue
		}
		v, ok := ss.header.DecodeValue(i, r[i]).(string)
		if !ok {
			return nil, fmt.Errorf("invalid code %v for nominal attribute %s", r[i], a.Name)
		}
		id, ok := ss.nominalIDs[v]
		if !ok {
			return nil, fmt.Errorf("value %s of %s has no representation on the database", v, a.Name)
		}
		rr[ss.columns[i]] = id
	}
	return rr, nil
}

func (ss *dbSet) rowFromRaw(rr map[string]interface{}) (dataset.Row, error) {
	r := make(dataset.Row, ss.header.Len())
	for i, a := range ss.header.Attributes {
		v, ok := rr[ss.columns[i]]
		if !ok || v == nil {
			r[i] = dataset.MissingValue()
			continue
		}
		if a.Kind == dataset.Nominal {
			id, ok := v.(int)
			if !ok {
				return nil, fmt.Errorf("expected sql representation for the value of %s to be an int, got %T", a.Name, v)
			}
			v = ss.nominalValues[id]
		}
		var err error
		r[i], err = ss.header.EncodeValue(i, v)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (ss *dbSet) initColumns() error {
	columnAttributes := make(map[string]string)
	ss.columns = make([]string, ss.header.Len())
	for i, a := range ss.header.Attributes {
		column, err := ss.db.ColumnName(a.Name)
		if err != nil {
			return fmt.Errorf("invalid attribute %s: %v", a.Name, err)
		}
		if other, ok := columnAttributes[column]; ok {
			return fmt.Errorf("%s and %s attribute names translate to the same column name %s", a.Name, other, column)
		}
		columnAttributes[column] = a.Name
		ss.columns[i] = column
		if a.Kind == dataset.Nominal {
			ss.nominalColumns = append(ss.nominalColumns, column)
		} else {
			ss.numericColumns = append(ss.numericColumns, column)
		}
	}
	return nil
}
