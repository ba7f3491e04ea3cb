package harness

import "fmt"

// InsufficientDataError is returned when a dataset has too few usable rows
// for the stage that was asked to run.
type InsufficientDataError struct {
	Rows    int
	Minimum int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d usable rows, need at least %d", e.Rows, e.Minimum)
}
