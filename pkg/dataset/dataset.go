// Package dataset provides the in-memory tabular model shared by the
// profiler, the transform engine and the model harness: an ordered set of
// named, typed columns of equal length.
package dataset

import (
	"fmt"
	"strings"
)

// Class is the coarse column classification used by profiling heuristics
// and transform guards. It is derived from cell contents, except that
// categorical is an explicit marking.
type Class string

const (
	ClassNumeric     Class = "numeric"
	ClassText        Class = "text"
	ClassTemporal    Class = "temporal"
	ClassBoolean     Class = "boolean"
	ClassCategorical Class = "categorical"
)

// Column is a named, ordered sequence of cells.
type Column struct {
	Name string
	// Categorical marks a column explicitly converted to a categorical
	// type; the marking survives value edits.
	Categorical bool
	Cells       []Value
}

// Class derives the column classification. A column is numeric, temporal or
// boolean only when every non-missing cell agrees; mixed content is text.
// Columns with no observed values classify as numeric, matching how an
// all-missing column comes off disk.
func (c *Column) Class() Class {
	if c.Categorical {
		return ClassCategorical
	}
	var numeric, temporal, boolean, text, seen int
	for _, v := range c.Cells {
		if v.Missing {
			continue
		}
		seen++
		switch v.Kind {
		case KindInt, KindFloat:
			numeric++
		case KindTime:
			temporal++
		case KindBool:
			boolean++
		case KindCategory:
			return ClassCategorical
		default:
			text++
		}
	}
	switch {
	case seen == 0:
		return ClassNumeric
	case numeric == seen:
		return ClassNumeric
	case temporal == seen:
		return ClassTemporal
	case boolean == seen:
		return ClassBoolean
	default:
		return ClassText
	}
}

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Cells {
		if v.Missing {
			n++
		}
	}
	return n
}

// MissingFraction returns the fraction of missing cells in [0, 1].
// An empty column has fraction 0.
func (c *Column) MissingFraction() float64 {
	if len(c.Cells) == 0 {
		return 0
	}
	return float64(c.MissingCount()) / float64(len(c.Cells))
}

// DistinctCount returns the number of distinct non-missing values.
func (c *Column) DistinctCount() int {
	seen := make(map[string]struct{}, len(c.Cells))
	for _, v := range c.Cells {
		if v.Missing {
			continue
		}
		seen[v.String()] = struct{}{}
	}
	return len(seen)
}

// Floats extracts the numeric payloads of all non-missing numeric cells,
// preserving row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Cells))
	for _, v := range c.Cells {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Copy returns a deep copy of the column.
func (c *Column) Copy() *Column {
	cells := make([]Value, len(c.Cells))
	copy(cells, c.Cells)
	return &Column{Name: c.Name, Categorical: c.Categorical, Cells: cells}
}

// Shape is the row/column extent of a dataset.
type Shape struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

func (s Shape) String() string {
	return fmt.Sprintf("%d rows x %d columns", s.Rows, s.Columns)
}

// Dataset is an ordered collection of equal-length columns.
type Dataset struct {
	Name    string
	Columns []*Column
}

// New creates an empty dataset with the given name.
func New(name string) *Dataset {
	return &Dataset{Name: name}
}

// Rows returns the row count.
func (d *Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Cells)
}

// Cols returns the column count.
func (d *Dataset) Cols() int {
	return len(d.Columns)
}

// Shape returns the dataset extent.
func (d *Dataset) Shape() Shape {
	return Shape{Rows: d.Rows(), Columns: d.Cols()}
}

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the ordinal position of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column, or an error carrying the closest
// existing name when absent.
func (d *Dataset) Column(name string) (*Column, error) {
	if i := d.ColumnIndex(name); i >= 0 {
		return d.Columns[i], nil
	}
	return nil, NewColumnNotFound(name, d.ColumnNames())
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

// AddColumn appends a column. The cell count must match the current row
// count unless the dataset is empty.
func (d *Dataset) AddColumn(c *Column) error {
	return d.InsertColumns(len(d.Columns), c)
}

// InsertColumns splices columns in at position idx, preserving the order of
// everything after it.
func (d *Dataset) InsertColumns(idx int, cols ...*Column) error {
	if idx < 0 || idx > len(d.Columns) {
		return fmt.Errorf("insert position %d out of range [0, %d]", idx, len(d.Columns))
	}
	for _, c := range cols {
		if len(d.Columns) > 0 && len(c.Cells) != d.Rows() {
			return fmt.Errorf("column %q has %d cells, dataset has %d rows", c.Name, len(c.Cells), d.Rows())
		}
		if d.HasColumn(c.Name) {
			return fmt.Errorf("column %q already exists", c.Name)
		}
	}
	rest := make([]*Column, len(d.Columns[idx:]))
	copy(rest, d.Columns[idx:])
	d.Columns = append(append(d.Columns[:idx], cols...), rest...)
	return nil
}

// DropColumn removes the named column, reporting whether it existed.
func (d *Dataset) DropColumn(name string) bool {
	i := d.ColumnIndex(name)
	if i < 0 {
		return false
	}
	d.Columns = append(d.Columns[:i], d.Columns[i+1:]...)
	return true
}

// KeepRows retains only rows whose keep flag is true and returns the number
// of rows removed. The flag slice must cover every row.
func (d *Dataset) KeepRows(keep []bool) int {
	if len(keep) != d.Rows() {
		return 0
	}
	removed := 0
	for _, k := range keep {
		if !k {
			removed++
		}
	}
	if removed == 0 {
		return 0
	}
	for _, c := range d.Columns {
		cells := c.Cells[:0]
		for i, v := range c.Cells {
			if keep[i] {
				cells = append(cells, v)
			}
		}
		c.Cells = cells
	}
	return removed
}

// RowKey builds a fingerprint of row i for duplicate detection. Missing
// cells fingerprint distinctly from empty strings.
func (d *Dataset) RowKey(i int) string {
	var b strings.Builder
	for _, c := range d.Columns {
		v := c.Cells[i]
		if v.Missing {
			b.WriteString("\x00?")
		} else {
			b.WriteString(v.String())
		}
		b.WriteByte('\x00')
	}
	return b.String()
}

// RowHasMissing reports whether any cell in row i is missing.
func (d *Dataset) RowHasMissing(i int) bool {
	for _, c := range d.Columns {
		if c.Cells[i].Missing {
			return true
		}
	}
	return false
}

// Copy returns a deep copy sharing no memory with the receiver.
func (d *Dataset) Copy() *Dataset {
	out := &Dataset{Name: d.Name, Columns: make([]*Column, len(d.Columns))}
	for i, c := range d.Columns {
		out.Columns[i] = c.Copy()
	}
	return out
}

// Classes returns the classification of every column keyed by name.
func (d *Dataset) Classes() map[string]Class {
	out := make(map[string]Class, len(d.Columns))
	for _, c := range d.Columns {
		out[c.Name] = c.Class()
	}
	return out
}

// MissingByColumn returns the missing-cell count for every column keyed by
// name.
func (d *Dataset) MissingByColumn() map[string]int {
	out := make(map[string]int, len(d.Columns))
	for _, c := range d.Columns {
		out[c.Name] = c.MissingCount()
	}
	return out
}
