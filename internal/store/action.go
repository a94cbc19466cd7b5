package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Action runs fn inside a transaction. The Store passed to fn shares this
// store's compiler and executes every statement on the transaction.
//
// The transaction commits when fn returns nil. Any error rolls it back;
// ErrRollback rolls back and Action returns nil. A panic in fn rolls back
// and re-panics.
func (s *Store) Action(ctx context.Context, fn func(tx *Store) error) error {
	if s.tx != nil {
		return ErrNestedAction
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	bound := &Store{
		db:       s.db,
		tx:       tx,
		q:        tx,
		driver:   s.driver,
		compiler: s.compiler,
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		if errors.Is(err, ErrRollback) {
			slog.Debug("transaction rolled back on request")
			return nil
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
