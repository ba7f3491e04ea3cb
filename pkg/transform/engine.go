// Package transform applies ordered preparation steps to a dataset and
// keeps an append-only audit log of every mutation. The engine works on a
// deep copy; the dataset handed to NewEngine is never touched.
package transform

import (
	"fmt"

	"github.com/tableprep/tableprep-go/pkg/dataset"
)

// DefaultEncodeDistinctLimit guards encode_categorical against numeric
// columns whose cardinality would explode into that many encoded values.
const DefaultEncodeDistinctLimit = 20

// highMissingThreshold is the missing fraction above which the implicit
// cleanup pass drops a column.
const highMissingThreshold = 0.5

// Engine mutates a working copy of a dataset step by step.
type Engine struct {
	original *dataset.Dataset
	ds       *dataset.Dataset
	log      []StepRecord

	// EncodeDistinctLimit overrides DefaultEncodeDistinctLimit when > 0.
	EncodeDistinctLimit int
}

// NewEngine copies ds twice: one pristine original for reporting and one
// working copy for mutation.
func NewEngine(ds *dataset.Dataset) *Engine {
	return &Engine{
		original:            ds.Copy(),
		ds:                  ds.Copy(),
		EncodeDistinctLimit: DefaultEncodeDistinctLimit,
	}
}

// Original returns the untouched pre-transformation dataset.
func (e *Engine) Original() *dataset.Dataset {
	return e.original
}

// Dataset returns the current working dataset.
func (e *Engine) Dataset() *dataset.Dataset {
	return e.ds
}

// Log returns the audit log in application order.
func (e *Engine) Log() []StepRecord {
	return e.log
}

func (e *Engine) record(r StepRecord) {
	e.log = append(e.log, r)
}

// Apply executes the steps strictly in order, then runs the implicit
// cleanup passes. The first failing step aborts the run.
func (e *Engine) Apply(steps []Step) error {
	for i, s := range steps {
		if err := e.ApplyStep(s); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, s.Action, err)
		}
	}
	e.Cleanup()
	return nil
}

// ApplyStep executes a single step without the implicit cleanup passes.
// Callers driving steps one at a time must call Cleanup after the last
// one.
func (e *Engine) ApplyStep(s Step) error {
	switch s.Action {
	case StepChangeType, "change_data_type":
		return e.ChangeDataType(s.Column, s.Method)
	case StepFillMissing:
		return e.FillMissing(s.Column, s.Method, s.Value)
	case StepRemoveOutliers:
		return e.RemoveOutliers(s.Column)
	case StepEncodeCategorical, "encode":
		return e.EncodeCategorical(s.Column, s.Method)
	case StepDropColumn:
		return e.DropColumn(s.Column)
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
}

// DropColumn removes the named column. A missing column is an error so
// step lists stay auditable.
func (e *Engine) DropColumn(name string) error {
	if !e.ds.HasColumn(name) {
		return dataset.NewColumnNotFound(name, e.ds.ColumnNames())
	}
	e.ds.DropColumn(name)
	e.record(StepRecord{
		Kind:    StepDropColumn,
		Details: fmt.Sprintf("Dropped column: %s", name),
		Column:  name,
	})
	return nil
}

// Cleanup runs the two implicit passes in fixed order: drop columns with
// more than half their cells missing, then drop exact duplicate rows.
// Both passes are idempotent and log nothing when there is nothing to do.
func (e *Engine) Cleanup() {
	e.DropHighMissingColumns(highMissingThreshold)
	e.RemoveDuplicates()
}

// DropHighMissingColumns drops every column whose missing fraction
// strictly exceeds threshold, logging one record covering all of them.
func (e *Engine) DropHighMissingColumns(threshold float64) {
	var dropped []string
	for _, c := range e.ds.Columns {
		if c.MissingFraction() > threshold {
			dropped = append(dropped, c.Name)
		}
	}
	if len(dropped) == 0 {
		return
	}
	for _, name := range dropped {
		e.ds.DropColumn(name)
	}
	e.record(StepRecord{
		Kind:    StepDropHighMissing,
		Details: fmt.Sprintf("Dropped %d columns with >%.0f%% missing values", len(dropped), threshold*100),
		Outcome: map[string]any{"columns": dropped},
	})
}

// RemoveDuplicates drops rows whose values match an earlier row across
// every column, keeping the first occurrence.
func (e *Engine) RemoveDuplicates() {
	rows := e.ds.Rows()
	if rows == 0 || e.ds.Cols() == 0 {
		return
	}
	seen := make(map[string]struct{}, rows)
	keep := make([]bool, rows)
	duplicates := 0
	for i := 0; i < rows; i++ {
		key := e.ds.RowKey(i)
		if _, dup := seen[key]; dup {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		keep[i] = true
	}
	if duplicates == 0 {
		return
	}
	e.ds.KeepRows(keep)
	e.record(StepRecord{
		Kind:    StepRemoveDuplicates,
		Details: fmt.Sprintf("Removed %d duplicate rows", duplicates),
		Outcome: map[string]any{"removed_count": duplicates},
	})
}
