package store

import (
	"context"
	"fmt"

	"github.com/maihuoche/Medoo/internal/queryir"
)

// Outcome is the result of running an arbitrary statement.
type Outcome struct {
	SQL         string
	Fingerprint string

	// Result is set for SELECT and EXISTS statements.
	Result *Result

	// Affected is set for UPDATE and DELETE; LastInsertID for INSERT.
	Affected     int64
	LastInsertID int64
}

// Run compiles stmt and executes it with the method its kind needs.
func (s *Store) Run(ctx context.Context, stmt queryir.Statement) (*Outcome, error) {
	sqlText, params, err := s.compiler.Compile(stmt)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	out := &Outcome{SQL: sqlText, Fingerprint: fingerprint(sqlText, params)}

	switch stmt.(type) {
	case queryir.Select, *queryir.Select, queryir.Exists, *queryir.Exists:
		res, err := s.Query(ctx, sqlText, params)
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
		out.Result = res
		return out, nil
	}

	res, err := s.Exec(ctx, sqlText, params)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	switch stmt.(type) {
	case queryir.Insert, *queryir.Insert:
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("run: last insert id: %w", err)
		}
		out.LastInsertID = id
	default:
		n, err := affected(res)
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
		out.Affected = n
	}
	return out, nil
}
