/*
Package csv reads and writes dataset tables as CSV streams. The first record
holds attribute names and the '?' string stands for a missing value.
*/
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/awojna/Rseslib-sub001/dataset"
)

// MissingValue is the CSV representation of a missing value.
const MissingValue = "?"

/*
Writer is an interface for a table sink to which rows
can be written to.
*/
type Writer interface {
	// Write will attempt to write the given rows and will
	// return the actually written number of rows and an error
	// (if not all rows could be written)
	Write(context.Context, []dataset.Row) (int, error)
	// Count returns the total number of rows written
	// to the writer
	Count() int
	// Flush ensures any pending written operations finish
	// before returning. It returns an error if that cannot
	// be ensured.
	Flush() error
}

type csvWriter struct {
	count  int
	header *dataset.Header
	w      *csv.Writer
}

/*
ReadTable takes an io.Reader for a CSV stream and a header and returns a
dataset.Table with the rows parsed from the reader or an error.

The first record of the CSV content is expected to consist of the names of the
attributes of the header, in any order. A trailing column with an unknown name
is ignored. The rest of the records should consist of valid values for the
attributes and/or the '?' string to indicate a missing value. Attributes without
a column are missing on every row.
*/
func ReadTable(reader io.Reader, header *dataset.Header) (dataset.Table, error) {
	rows := []dataset.Row{}
	err := ReadTableByRow(reader, header, func(_ int, r dataset.Row) (bool, error) {
		rows = append(rows, r)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return dataset.New(header, rows), nil
}

/*
ReadTableByRow takes an io.Reader for a CSV stream, a header and a lambda
function on an integer and a dataset.Row that returns a boolean value.
It parses the rows from the reader and for each it calls the lambda function
with the row and its index as parameters. If the lambda function returns true,
it will continue processing the next row, otherwise it will stop. An error is
returned if something goes wrong when reading the stream or parsing a row.
*/
func ReadTableByRow(reader io.Reader, header *dataset.Header, lambda func(int, dataset.Row) (bool, error)) error {
	r := csv.NewReader(reader)
	names, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %v", err)
	}
	positions, err := parseColumns(names, header)
	if err != nil {
		return err
	}
	for l := 2; ; l++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading body: %v", err)
		}
		row, err := parseRow(record, positions, header)
		if err != nil {
			return fmt.Errorf("parsing line %d: %v", l, err)
		}
		ok, err := lambda(l-2, row)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return nil
}

/*
ReadTableFromFilePath takes a filepath string and a header, opens the file to
which the filepath points to and uses ReadTable to return a dataset.Table
read from it. If the filepath is "" os.Stdin is used instead.
*/
func ReadTableFromFilePath(filepath string, header *dataset.Header) (dataset.Table, error) {
	var f *os.File
	var err error
	if filepath == "" {
		f = os.Stdin
	} else {
		f, err = os.Open(filepath)
		if err != nil {
			return nil, fmt.Errorf("reading table: %v", err)
		}
		defer f.Close()
	}
	table, err := ReadTable(f, header)
	if err != nil {
		err = fmt.Errorf("parsing CSV file %s: %v", filepath, err)
	}
	return table, err
}

/*
NewWriter takes an io.Writer and a header and returns a Writer that will
write rows of the header on the io.Writer after a record with the names
of its attributes.
*/
func NewWriter(writer io.Writer, header *dataset.Header) (Writer, error) {
	w := csv.NewWriter(writer)
	record := make([]string, header.Len())
	for i, a := range header.Attributes {
		record[i] = a.Name
	}
	err := w.Write(record)
	if err != nil {
		return nil, fmt.Errorf("writing CSV header: %v", err)
	}
	return &csvWriter{header: header, w: w}, nil
}

/*
WriteTable takes a writer and a dataset.Table and dumps the table to the
writer in CSV format. It returns an error if something went wrong when
writing to the writer.
*/
func WriteTable(ctx context.Context, writer io.Writer, t dataset.Table) error {
	cw, err := NewWriter(writer, t.Header())
	if err != nil {
		return err
	}
	rows, err := t.Rows(ctx)
	if err != nil {
		return err
	}
	_, err = cw.Write(ctx, rows)
	if err != nil {
		return err
	}
	return cw.Flush()
}

func parseColumns(names []string, header *dataset.Header) ([]int, error) {
	positions := make([]int, 0, len(names))
	seen := make(map[int]bool)
	for i, name := range names {
		position := -1
		for j, a := range header.Attributes {
			if a.Name == name {
				position = j
				break
			}
		}
		if position < 0 {
			if i != len(names)-1 {
				return nil, fmt.Errorf("parsing header: reference to unknown attribute %s", name)
			}
		} else if seen[position] {
			return nil, fmt.Errorf("parsing header: duplicated attribute %s", name)
		}
		seen[position] = true
		positions = append(positions, position)
	}
	return positions, nil
}

func parseRow(record []string, positions []int, header *dataset.Header) (dataset.Row, error) {
	if len(record) < len(positions) {
		return nil, fmt.Errorf("expected %d values, got %d", len(positions), len(record))
	}
	row := make(dataset.Row, header.Len())
	for i := range row {
		row[i] = dataset.MissingValue()
	}
	for i, position := range positions {
		if position < 0 || record[i] == MissingValue {
			continue
		}
		v, err := header.EncodeValue(position, record[i])
		if err != nil {
			return nil, err
		}
		row[position] = v
	}
	return row, nil
}

func (cw *csvWriter) Count() int {
	return cw.count
}

func (cw *csvWriter) Write(ctx context.Context, rows []dataset.Row) (int, error) {
	for n, r := range rows {
		if err := cw.WriteRow(r); err != nil {
			return n, err
		}
	}
	return len(rows), nil
}

/*
WriteRow writes a single row, using the header to turn nominal codes back
into values.
*/
func (cw *csvWriter) WriteRow(r dataset.Row) error {
	record := make([]string, cw.header.Len())
	for j := range record {
		v := cw.header.DecodeValue(j, r[j])
		if v == nil {
			record[j] = MissingValue
		} else {
			record[j] = fmt.Sprintf("%v", v)
		}
	}
	err := cw.w.Write(record)
	if err != nil {
		return fmt.Errorf("writing CSV row for row %d: %v", cw.count+1, err)
	}
	cw.count++
	return nil
}

func (cw *csvWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}
