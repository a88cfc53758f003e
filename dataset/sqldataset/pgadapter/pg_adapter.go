/*
Package pgadapter provides an implementation of the
Adapter interface in the sqldataset package that works
over a PostgreSQL database.
*/
package pgadapter

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/awojna/Rseslib-sub001/dataset/sqldataset"

	// Import of PostgreSQL driver
	_ "github.com/lib/pq"
)

const (
	nominalValueTableCreateStmt = `CREATE TABLE IF NOT EXISTS nominalValues (
		id SERIAL PRIMARY KEY,
		value TEXT UNIQUE NOT NULL)`

	// MaxNominalValueInsertionsPerStatement is the maximum number
	// of nominal values added with a single insert command by the
	// AddNominalValues method of the adapter.
	MaxNominalValueInsertionsPerStatement = 10

	// MaxRowInsertionsPerStatement is the maximum number of rows
	// added with a single insert command by the AddRows method of
	// the adapter.
	MaxRowInsertionsPerStatement = 10
)

type adapter struct {
	db *sql.DB
}

/*
New takes a PostgreSQL database connection URL and returns
an Adapter that works on the database or an error if it fails to connect to it.
*/
func New(url string) (sqldataset.Adapter, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	return &adapter{db}, nil
}

func (a *adapter) ColumnName(name string) (string, error) {
	if name == "id" {
		return "", fmt.Errorf(`'%s' is reserved and cannot be used as attribute name`, name)
	}
	if strings.ContainsAny(name, `"`) {
		return "", fmt.Errorf(`attribute name '%s' contains invalid character '"'`, name)
	}
	return name, nil
}

func (a *adapter) CreateNominalValuesTable(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, nominalValueTableCreateStmt)
	if err != nil {
		return fmt.Errorf("running nominalValues creation statement: %v", err)
	}
	return nil
}

func (a *adapter) CreateRowTable(ctx context.Context, nominalColumns, numericColumns []string) error {
	var createStmtBuf bytes.Buffer
	createStmtBuf.WriteString("CREATE TABLE IF NOT EXISTS objects(")
	for _, c := range nominalColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`"%s" INTEGER NULL REFERENCES nominalValues(id), `, c))
	}
	for _, c := range numericColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`"%s" DOUBLE PRECISION NULL, `, c))
	}
	createStmtBuf.WriteString(`"id" SERIAL PRIMARY KEY)`)
	_, err := a.db.ExecContext(ctx, createStmtBuf.String())
	if err != nil {
		return fmt.Errorf("ensuring objects table exists: %v", err)
	}
	return nil
}

func (a *adapter) AddNominalValues(ctx context.Context, values []string) (int, error) {
	args := make([][]interface{}, len(values))
	for i, v := range values {
		args[i] = []interface{}{v}
	}
	return a.insert(ctx, "INSERT INTO nominalValues (value) VALUES ", 1, MaxNominalValueInsertionsPerStatement, args)
}

func (a *adapter) ListNominalValues(ctx context.Context) (map[int]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT id, value FROM nominalValues`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[int]string)
	for rows.Next() {
		var id int
		var value string
		err = rows.Scan(&id, &value)
		if err != nil {
			return nil, err
		}
		result[id] = value
	}
	return result, rows.Err()
}

func (a *adapter) AddRows(ctx context.Context, rawRows []map[string]interface{}, nominalColumns, numericColumns []string) (int, error) {
	columns := append(append([]string{}, nominalColumns...), numericColumns...)
	if len(columns) == 0 {
		return 0, fmt.Errorf("no attributes to store")
	}
	args := make([][]interface{}, len(rawRows))
	for i, rr := range rawRows {
		args[i] = make([]interface{}, len(columns))
		for j, c := range columns {
			args[i][j] = rr[c]
		}
	}
	stmtStart := fmt.Sprintf(`INSERT INTO objects ("%s") VALUES `, strings.Join(columns, `", "`))
	return a.insert(ctx, stmtStart, len(columns), MaxRowInsertionsPerStatement, args)
}

func (a *adapter) IterateOnRows(ctx context.Context, nominalColumns, numericColumns []string, lambda func(int, map[string]interface{}) (bool, error)) error {
	columns := append(append([]string{}, nominalColumns...), numericColumns...)
	query := fmt.Sprintf(`SELECT "%s" FROM objects ORDER BY "id"`, strings.Join(columns, `", "`))
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for j := 0; rows.Next(); j++ {
		rawRow := make(map[string]interface{})
		nominalValues := make([]sql.NullInt64, len(nominalColumns))
		numericValues := make([]sql.NullFloat64, len(numericColumns))
		values := make([]interface{}, 0, len(columns))
		for i := range nominalValues {
			values = append(values, &nominalValues[i])
		}
		for i := range numericValues {
			values = append(values, &numericValues[i])
		}
		err = rows.Scan(values...)
		if err != nil {
			return err
		}
		for i, c := range nominalColumns {
			if nominalValues[i].Valid {
				rawRow[c] = int(nominalValues[i].Int64)
			}
		}
		for i, c := range numericColumns {
			if numericValues[i].Valid {
				rawRow[c] = numericValues[i].Float64
			}
		}
		ok, err := lambda(j, rawRow)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return rows.Err()
}

func (a *adapter) Close() error {
	return a.db.Close()
}

// insert runs stmtStart followed by up to chunkSize value tuples of the
// given width per statement, numbering placeholders from $1 on every
// statement, and returns the number of tuples inserted.
func (a *adapter) insert(ctx context.Context, stmtStart string, width, chunkSize int, args [][]interface{}) (int, error) {
	for start := 0; start < len(args); start += chunkSize {
		end := start + chunkSize
		if end > len(args) {
			end = len(args)
		}
		var stmtBuffer bytes.Buffer
		stmtBuffer.WriteString(stmtStart)
		values := make([]interface{}, 0, (end-start)*width)
		for i := start; i < end; i++ {
			if i > start {
				stmtBuffer.WriteString(", ")
			}
			stmtBuffer.WriteString("(")
			for j := 0; j < width; j++ {
				if j > 0 {
					stmtBuffer.WriteString(", ")
				}
				stmtBuffer.WriteString(fmt.Sprintf("$%d", len(values)+j+1))
			}
			stmtBuffer.WriteString(")")
			values = append(values, args[i]...)
		}
		_, err := a.db.ExecContext(ctx, stmtBuffer.String(), values...)
		if err != nil {
			return start, fmt.Errorf("inserting %d tuples after the first %d: %v", end-start, start, err)
		}
	}
	return len(args), nil
}
