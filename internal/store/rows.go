package store

import (
	"database/sql"
	"fmt"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Result holds query rows with the column order reported by the driver.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Maps returns the rows keyed by column name. A column name that appears
// twice keeps its last value.
func (r *Result) Maps() []Row {
	if r == nil {
		return []Row{}
	}
	out := make([]Row, len(r.Rows))
	for i, values := range r.Rows {
		row := make(Row, len(r.Columns))
		for j, col := range r.Columns {
			row[col] = values[j]
		}
		out[i] = row
	}
	return out
}

// scanRows reads every row. Returns an empty (non-nil) row slice when the
// query matched nothing.
func scanRows(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	res := &Result{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return res, nil
}

// normalize converts driver byte slices to strings. The driver may reuse
// the buffer after the next Scan, so the bytes are copied either way.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
