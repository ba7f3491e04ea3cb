// Package profile inspects datasets column by column and produces
// diagnostics with suggested preparation actions. Profiling never mutates
// the dataset.
package profile

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/tableprep/tableprep-go/pkg/dataset"
)

// Suggested action identifiers. These match the step names accepted by the
// transform engine where a direct counterpart exists.
const (
	ActionDropColumn           = "drop_column"
	ActionFillMissing          = "fill_missing"
	ActionLabelEncode          = "label_encode"
	ActionOnehotEncode         = "onehot_encode"
	ActionRemoveOutliers       = "remove_outliers"
	ActionConvertToCategorical = "convert_to_categorical"
)

// sampleLimit caps the number of example values reported per column.
const sampleLimit = 5

// ColumnDiagnostic describes one column of a dataset at profiling time.
type ColumnDiagnostic struct {
	Name           string          `json:"name"`
	Kind           dataset.Class   `json:"type"`
	Missing        int             `json:"missing"`
	MissingPercent float64         `json:"missing_percent"`
	Unique         int             `json:"unique"`
	Samples        []any           `json:"sample_values"`
	Stats          *NumericSummary `json:"stats,omitempty"`
	Suggestions    []string        `json:"suggested_actions"`
}

// NumericSummary holds descriptive statistics for numeric columns.
type NumericSummary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// Describe profiles every column of the dataset in column order.
func Describe(ds *dataset.Dataset) []ColumnDiagnostic {
	out := make([]ColumnDiagnostic, 0, ds.Cols())
	for _, col := range ds.Columns {
		out = append(out, describeColumn(col, ds.Rows()))
	}
	return out
}

func describeColumn(c *dataset.Column, rows int) ColumnDiagnostic {
	d := ColumnDiagnostic{
		Name:    c.Name,
		Kind:    c.Class(),
		Missing: c.MissingCount(),
		Unique:  c.DistinctCount(),
		Samples: []any{},
	}
	if rows > 0 {
		d.MissingPercent = round2(float64(d.Missing) / float64(rows) * 100)
	}
	for _, v := range c.Cells {
		if len(d.Samples) == sampleLimit {
			break
		}
		if !v.IsMissing() {
			d.Samples = append(d.Samples, v.Native())
		}
	}
	if d.Kind == dataset.ClassNumeric {
		d.Stats = summarize(c)
	}
	d.Suggestions = suggest(d)
	return d
}

// suggest derives the advisory action set from a column's diagnostics.
// A column past the high-missing threshold gets drop_column and nothing
// else; the remaining rules accumulate.
func suggest(d ColumnDiagnostic) []string {
	if d.MissingPercent > 50 {
		return []string{ActionDropColumn}
	}
	actions := []string{}
	if d.MissingPercent > 0 {
		actions = append(actions, ActionFillMissing)
	}
	if (d.Kind == dataset.ClassText || d.Kind == dataset.ClassCategorical) && d.Unique < 20 {
		actions = append(actions, ActionLabelEncode, ActionOnehotEncode)
	}
	if d.Kind == dataset.ClassNumeric {
		actions = append(actions, ActionRemoveOutliers)
		if d.Unique < 10 {
			actions = append(actions, ActionConvertToCategorical)
		}
	}
	return actions
}

func summarize(c *dataset.Column) *NumericSummary {
	values := c.Floats()
	if len(values) == 0 {
		return nil
	}
	min, err := stats.Min(values)
	if err != nil {
		return nil
	}
	max, _ := stats.Max(values)
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	std := 0.0
	if len(values) > 1 {
		std, _ = stats.StandardDeviationSample(values)
	}
	return &NumericSummary{Min: min, Max: max, Mean: mean, Median: median, StdDev: std}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
