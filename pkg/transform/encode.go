package transform

import (
	"fmt"
	"sort"

	"github.com/tableprep/tableprep-go/pkg/dataset"
)

// Encode methods accepted by EncodeCategorical.
const (
	EncodeLabel  = "label"
	EncodeOnehot = "onehot"
)

// EncodeCategorical encodes the named column. The label method replaces
// values with dense integer codes assigned over the distinct stringified
// values in lexicographic order; the onehot method expands the column into
// one boolean column per distinct value plus a missing indicator, spliced
// in at the original position. Numeric columns past the distinct limit are
// rejected so an encode cannot explode the column count.
func (e *Engine) EncodeCategorical(name, method string) error {
	idx := e.ds.ColumnIndex(name)
	if idx < 0 {
		return dataset.NewColumnNotFound(name, e.ds.ColumnNames())
	}
	col := e.ds.Columns[idx]

	limit := e.EncodeDistinctLimit
	if limit <= 0 {
		limit = DefaultEncodeDistinctLimit
	}
	distinct := distinctValues(col)
	if col.Class() == dataset.ClassNumeric && len(distinct) > limit {
		return &NotCategoricalError{Column: name, Distinct: len(distinct), Limit: limit}
	}

	switch method {
	case EncodeLabel:
		return e.labelEncode(col, distinct)
	case EncodeOnehot:
		return e.onehotEncode(idx, col, distinct)
	default:
		return fmt.Errorf("unknown encode method %q", method)
	}
}

// distinctValues returns the distinct non-missing stringified values in
// lexicographic order.
func distinctValues(col *dataset.Column) []string {
	seen := make(map[string]struct{})
	for _, v := range col.Cells {
		if v.IsMissing() {
			continue
		}
		seen[v.String()] = struct{}{}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

func (e *Engine) labelEncode(col *dataset.Column, distinct []string) error {
	if len(distinct) == 0 {
		return nil
	}
	mapping := make(map[string]int, len(distinct))
	for code, v := range distinct {
		mapping[v] = code
	}
	for i, v := range col.Cells {
		if v.IsMissing() {
			continue
		}
		col.Cells[i] = dataset.IntValue(int64(mapping[v.String()]))
	}
	col.Categorical = false

	e.record(StepRecord{
		Kind:    StepEncodeCategorical,
		Details: fmt.Sprintf("Applied Label Encoding to %s", col.Name),
		Column:  col.Name,
		Method:  EncodeLabel,
		Outcome: map[string]any{"mapping": mapping},
	})
	return nil
}

func (e *Engine) onehotEncode(idx int, col *dataset.Column, distinct []string) error {
	rows := len(col.Cells)
	name := col.Name

	newCols := make([]*dataset.Column, 0, len(distinct)+1)
	for _, value := range distinct {
		cells := make([]dataset.Value, rows)
		for i, v := range col.Cells {
			cells[i] = dataset.BoolValue(!v.IsMissing() && v.String() == value)
		}
		newCols = append(newCols, &dataset.Column{Name: name + "_" + value, Cells: cells})
	}
	missingCells := make([]dataset.Value, rows)
	for i, v := range col.Cells {
		missingCells[i] = dataset.BoolValue(v.IsMissing())
	}
	newCols = append(newCols, &dataset.Column{Name: name + "_missing", Cells: missingCells})

	e.ds.DropColumn(name)
	used := make(map[string]struct{}, e.ds.Cols()+len(newCols))
	for _, c := range e.ds.Columns {
		used[c.Name] = struct{}{}
	}
	for _, c := range newCols {
		c.Name = availableName(c.Name, used)
		used[c.Name] = struct{}{}
	}
	if err := e.ds.InsertColumns(idx, newCols...); err != nil {
		return fmt.Errorf("onehot encode %s: %w", name, err)
	}

	added := make([]string, len(newCols))
	for i, c := range newCols {
		added[i] = c.Name
	}
	e.record(StepRecord{
		Kind:    StepEncodeCategorical,
		Details: fmt.Sprintf("Applied One-Hot Encoding to %s", name),
		Column:  name,
		Method:  EncodeOnehot,
		Outcome: map[string]any{"columns": added},
	})
	return nil
}

// availableName suffixes a candidate column name until it is unused.
func availableName(candidate string, used map[string]struct{}) string {
	if _, taken := used[candidate]; !taken {
		return candidate
	}
	for n := 1; ; n++ {
		next := fmt.Sprintf("%s.%d", candidate, n)
		if _, taken := used[next]; !taken {
			return next
		}
	}
}
