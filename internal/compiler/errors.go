package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Position locates a node in its source file. The zero value means the
// position is unknown.
type Position struct {
	Filename string
	Line     int
	Column   int
}

// IsValid reports whether the position carries a line number.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

func positionOf(pos token.Pos) Position {
	if !pos.IsValid() {
		return Position{}
	}
	return Position{Filename: pos.Filename(), Line: pos.Line(), Column: pos.Column()}
}

// CompileError represents a malformed description with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     Position
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func errorAt(n *Node, field, format string, args ...any) *CompileError {
	var pos Position
	if n != nil {
		pos = n.Pos
	}
	return &CompileError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(field string, err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   field,
			Message: firstErr.Error(),
			Pos:     positionOf(positions[0]),
		}
	}

	return &CompileError{Field: field, Message: err.Error()}
}
