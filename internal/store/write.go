package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/maihuoche/Medoo/internal/ir"
	"github.com/maihuoche/Medoo/internal/queryir"
)

// Exec runs already compiled SQL that returns no rows.
func (s *Store) Exec(ctx context.Context, sqlText string, params []ir.Value) (sql.Result, error) {
	logStatement(sqlText, params)

	res, err := s.q.ExecContext(ctx, sqlText, ir.DriverArgs(params)...)
	if err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}
	return res, nil
}

// Insert writes one row and returns the driver's last insert id.
func (s *Store) Insert(ctx context.Context, q queryir.Insert) (int64, error) {
	res, err := s.execStatement(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert: last insert id: %w", err)
	}
	return id, nil
}

// Update applies q and returns the number of affected rows.
func (s *Store) Update(ctx context.Context, q queryir.Update) (int64, error) {
	res, err := s.execStatement(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	return affected(res)
}

// Delete removes matching rows and returns how many were removed.
func (s *Store) Delete(ctx context.Context, q queryir.Delete) (int64, error) {
	res, err := s.execStatement(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}
	return affected(res)
}

func (s *Store) execStatement(ctx context.Context, stmt queryir.Statement) (sql.Result, error) {
	sqlText, params, err := s.compiler.Compile(stmt)
	if err != nil {
		return nil, err
	}
	return s.Exec(ctx, sqlText, params)
}

func affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
