package transform

import "fmt"

// TypeConversionError reports a change_type step that could not run at all.
// Per-cell conversion failures coerce to missing instead of raising this.
type TypeConversionError struct {
	Column     string
	TargetType string
	Err        error
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("failed to convert %s to %s: %v", e.Column, e.TargetType, e.Err)
}

func (e *TypeConversionError) Unwrap() error {
	return e.Err
}

// IncompatibleMethodError reports a fill method that is not valid for the
// target column's data type.
type IncompatibleMethodError struct {
	Column string
	Method string
	Kind   string
}

func (e *IncompatibleMethodError) Error() string {
	return fmt.Sprintf("method %q is not valid for column %q of type %s", e.Method, e.Column, e.Kind)
}

// NotCategoricalError reports an encode step on a high-cardinality numeric
// column, which would explode into one column per distinct value.
type NotCategoricalError struct {
	Column   string
	Distinct int
	Limit    int
}

func (e *NotCategoricalError) Error() string {
	return fmt.Sprintf("column %q is not categorical: numeric with %d distinct values (limit %d)", e.Column, e.Distinct, e.Limit)
}
