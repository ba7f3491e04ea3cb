package transform

import (
	"fmt"
	"math"
	"sort"

	"github.com/tableprep/tableprep-go/pkg/dataset"
)

// RemoveOutliers drops rows whose value in the named column falls strictly
// outside the IQR fences [Q1 - 1.5*IQR, Q3 + 1.5*IQR]. Quartiles are
// computed over the column's non-missing values with linear interpolation.
// Rows whose cell is missing in this column are dropped alongside the
// outliers. Non-numeric and unknown columns are a no-op.
func (e *Engine) RemoveOutliers(name string) error {
	idx := e.ds.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	col := e.ds.Columns[idx]
	if col.Class() != dataset.ClassNumeric {
		return nil
	}
	values := col.Floats()
	if len(values) == 0 {
		return nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	q1 := quantileLinear(0.25, sorted)
	q3 := quantileLinear(0.75, sorted)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	outliers := 0
	for _, f := range values {
		if f < lower || f > upper {
			outliers++
		}
	}
	if outliers == 0 {
		return nil
	}

	keep := make([]bool, e.ds.Rows())
	for i := range keep {
		if f, ok := col.Cells[i].Float(); ok {
			keep[i] = f >= lower && f <= upper
		}
	}
	removed := e.ds.KeepRows(keep)

	e.record(StepRecord{
		Kind:    StepRemoveOutliers,
		Details: fmt.Sprintf("Removed %d outliers from %s using IQR method", removed, name),
		Column:  name,
		Method:  "iqr",
		Outcome: map[string]any{
			"removed_count": removed,
			"lower_bound":   round2(lower),
			"upper_bound":   round2(upper),
		},
	})
	return nil
}

// quantileLinear computes the p-quantile of sorted values, interpolating
// linearly between the two closest ranks.
func quantileLinear(p float64, sorted []float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
