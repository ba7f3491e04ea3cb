package dataset

import (
	"fmt"

	"github.com/agnivade/levenshtein"
)

// ParseError reports a malformed input file.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError reports an input format the loader does not handle.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q: supported formats are .csv, .xlsx", e.Format)
}

// ColumnNotFoundError reports a reference to a column that does not exist.
// Closest, when set, is the nearest existing name by edit distance.
type ColumnNotFoundError struct {
	Column  string
	Closest string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Closest != "" {
		return fmt.Sprintf("column %q not found (did you mean %q?)", e.Column, e.Closest)
	}
	return fmt.Sprintf("column %q not found", e.Column)
}

// NewColumnNotFound builds a ColumnNotFoundError, suggesting the closest of
// the available names when one is within edit distance 3.
func NewColumnNotFound(name string, available []string) *ColumnNotFoundError {
	e := &ColumnNotFoundError{Column: name}
	best := 4
	for _, cand := range available {
		if d := levenshtein.ComputeDistance(name, cand); d < best {
			best = d
			e.Closest = cand
		}
	}
	return e
}
