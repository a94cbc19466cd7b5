package querysql

import (
	"errors"
	"fmt"
)

// CompileError reports a statement that cannot be compiled.
//
// Compilation is all-or-nothing: when a CompileError is returned no SQL
// fragment is produced and the last-compiled snapshot is left untouched.
type CompileError struct {
	// Code identifies the error category.
	Code CompileErrorCode

	// Message is a human-readable description.
	Message string

	// Field names the part of the statement at fault ("columns", "data",
	// "table", ...). May be empty.
	Field string
}

// CompileErrorCode categorizes compile errors.
type CompileErrorCode string

const (
	// ErrCodeInvalidInput covers empty column lists, empty data maps,
	// empty table names and nil statements.
	ErrCodeInvalidInput CompileErrorCode = "INVALID_INPUT"

	// ErrCodeWildcardWithJoin indicates a bare "*" column list on a
	// statement that has joins.
	ErrCodeWildcardWithJoin CompileErrorCode = "WILDCARD_WITH_JOIN"
)

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidInput returns true for any caller-input error, including the
// wildcard-with-join rejection. Uses errors.As to handle wrapped errors.
func IsInvalidInput(err error) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeInvalidInput || ce.Code == ErrCodeWildcardWithJoin
	}
	return false
}

// IsWildcardWithJoin returns true if err rejects "*" alongside joins.
func IsWildcardWithJoin(err error) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeWildcardWithJoin
	}
	return false
}

func invalidInput(field, format string, args ...any) *CompileError {
	return &CompileError{
		Code:    ErrCodeInvalidInput,
		Message: fmt.Sprintf(format, args...),
		Field:   field,
	}
}

func errNilStatement() *CompileError {
	return invalidInput("statement", "cannot compile nil statement")
}
