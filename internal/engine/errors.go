package engine

import (
	"errors"
	"fmt"
)

var (
	ErrSchema                 = errors.New("schema error")
	ErrInvariant              = errors.New("aggregation invariant violated")
	ErrUnknownCareerArea      = errors.New("unknown career area")
	ErrUnknownExperienceClass = errors.New("unknown experience class")
)

// SchemaError reports input that does not satisfy a table schema.
// Row is 1-based and counts the header line.
type SchemaError struct {
	Table  string
	Row    int
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d: %s", e.Table, e.Row, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

func schemaErrorf(table string, row int, format string, args ...any) *SchemaError {
	return &SchemaError{Table: table, Row: row, Reason: fmt.Sprintf(format, args...)}
}

// InvariantError means the aggregator produced an inconsistent table.
// It points at a bug, never at bad input.
type InvariantError struct {
	Check string
	Class string
	State int
	Want  int64
	Got   int64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s (class %q, state %d): want %d, got %d", e.Check, e.Class, e.State, e.Want, e.Got)
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }
