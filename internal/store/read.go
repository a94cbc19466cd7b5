package store

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"github.com/maihuoche/Medoo/internal/ir"
	"github.com/maihuoche/Medoo/internal/queryir"
)

// Query runs already compiled SQL and reads every row.
func (s *Store) Query(ctx context.Context, sqlText string, params []ir.Value) (*Result, error) {
	logStatement(sqlText, params)

	rows, err := s.q.QueryContext(ctx, sqlText, ir.DriverArgs(params)...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// Select compiles and runs a SELECT.
func (s *Store) Select(ctx context.Context, q queryir.Select) (*Result, error) {
	sqlText, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	res, err := s.Query(ctx, sqlText, params)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return res, nil
}

// Get runs q with LIMIT 1 and returns the first row. The boolean is
// false when nothing matched.
func (s *Store) Get(ctx context.Context, q queryir.Select) (Row, bool, error) {
	q.Limit = &queryir.Limit{Count: 1}
	res, err := s.Select(ctx, q)
	if err != nil {
		return nil, false, err
	}
	if res.Len() == 0 {
		return nil, false, nil
	}
	return res.Maps()[0], true, nil
}

// Has reports whether any row matches q's table, joins and WHERE.
func (s *Store) Has(ctx context.Context, q queryir.Select) (bool, error) {
	v, err := s.scalar(ctx, queryir.Exists{Select: q})
	if err != nil {
		return false, fmt.Errorf("has: %w", err)
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("has: %w", err)
	}
	return b, nil
}

// Count returns COUNT(column) over q, or COUNT(*) when column is empty.
func (s *Store) Count(ctx context.Context, q queryir.Select, column string) (int64, error) {
	q.Aggregate = &queryir.Aggregate{Func: queryir.Count, Column: queryir.ColumnRef(column)}
	v, err := s.scalar(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Aggregate returns fn(column) over q. The result is nil when the
// aggregate is NULL (MAX over no rows).
func (s *Store) Aggregate(ctx context.Context, q queryir.Select, fn queryir.AggregateFunc, column string) (any, error) {
	q.Aggregate = &queryir.Aggregate{Func: fn, Column: queryir.ColumnRef(column)}
	v, err := s.scalar(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return v, nil
}

// scalar runs stmt and returns the first column of the first row.
func (s *Store) scalar(ctx context.Context, stmt queryir.Statement) (any, error) {
	sqlText, params, err := s.compiler.Compile(stmt)
	if err != nil {
		return nil, err
	}
	res, err := s.Query(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	if res.Len() == 0 || len(res.Columns) == 0 {
		return nil, nil
	}
	return res.Rows[0][0], nil
}
