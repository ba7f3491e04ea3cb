package transform

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/tableprep/tableprep-go/pkg/dataset"
)

// Fill methods accepted by FillMissing.
const (
	FillMean     = "mean"
	FillMedian   = "median"
	FillMode     = "mode"
	FillCustom   = "custom"
	FillForward  = "forward_fill"
	FillBackward = "backward_fill"
	FillDefault  = "default"
)

// FillMissing replaces missing cells in the named column. mean and median
// require a numeric column; mode picks the most frequent value with ties
// going to the smallest; custom uses the caller-supplied value; forward and
// backward fill propagate the nearest valid neighbor. The default method
// fills numeric columns with 0 and everything else with the empty string.
// A column with nothing missing is a no-op and logs nothing.
func (e *Engine) FillMissing(name, method string, customValue any) error {
	col, err := e.ds.Column(name)
	if err != nil {
		return err
	}
	missing := col.MissingCount()
	if missing == 0 {
		return nil
	}

	if method == "" || (method == FillCustom && customValue == nil) {
		method = FillDefault
	}

	fillDisplay := "N/A"
	filled := 0
	switch method {
	case FillMean, FillMedian:
		if col.Class() != dataset.ClassNumeric {
			return &IncompatibleMethodError{Column: name, Method: method, Kind: string(col.Class())}
		}
		values := col.Floats()
		if len(values) == 0 {
			return nil
		}
		var f float64
		if method == FillMean {
			f, err = stats.Mean(values)
		} else {
			f, err = stats.Median(values)
		}
		if err != nil {
			return fmt.Errorf("fill %s: %w", name, err)
		}
		fill := numericValue(f)
		fillDisplay = fill.String()
		filled = replaceMissing(col, fill)

	case FillMode:
		fill, ok := modeValue(col)
		if !ok {
			return nil
		}
		fillDisplay = fill.String()
		filled = replaceMissing(col, fill)

	case FillCustom:
		fill := valueFromAny(customValue)
		fillDisplay = fill.String()
		filled = replaceMissing(col, fill)

	case FillForward:
		filled = propagate(col, false)

	case FillBackward:
		filled = propagate(col, true)

	case FillDefault:
		fill := dataset.StringValue("")
		if col.Class() == dataset.ClassNumeric {
			fill = dataset.IntValue(0)
		}
		fillDisplay = fill.String()
		filled = replaceMissing(col, fill)

	default:
		return fmt.Errorf("unknown fill method %q", method)
	}

	if filled == 0 {
		return nil
	}
	e.record(StepRecord{
		Kind:    StepFillMissing,
		Details: fmt.Sprintf("Filled %d missing values in %s with %s", filled, name, method),
		Column:  name,
		Method:  method,
		Outcome: map[string]any{"missing_count": filled, "fill_value": fillDisplay},
	})
	return nil
}

func replaceMissing(col *dataset.Column, fill dataset.Value) int {
	n := 0
	for i, v := range col.Cells {
		if v.IsMissing() {
			col.Cells[i] = fill
			n++
		}
	}
	return n
}

// propagate carries the nearest valid value forward (or backward when
// reverse is set). Gaps before the first valid value stay missing.
func propagate(col *dataset.Column, reverse bool) int {
	n := len(col.Cells)
	filled := 0
	last := dataset.MissingValue()
	for i := 0; i < n; i++ {
		idx := i
		if reverse {
			idx = n - 1 - i
		}
		v := col.Cells[idx]
		if !v.IsMissing() {
			last = v
			continue
		}
		if !last.IsMissing() {
			col.Cells[idx] = last
			filled++
		}
	}
	return filled
}

// modeValue returns the most frequent non-missing value. Ties resolve to
// the smallest value, numerically when both candidates are numeric and
// lexicographically otherwise.
func modeValue(col *dataset.Column) (dataset.Value, bool) {
	counts := make(map[string]int)
	repr := make(map[string]dataset.Value)
	for _, v := range col.Cells {
		if v.IsMissing() {
			continue
		}
		key := v.String()
		counts[key]++
		if _, ok := repr[key]; !ok {
			repr[key] = v
		}
	}
	if len(counts) == 0 {
		return dataset.Value{}, false
	}
	var best dataset.Value
	bestCount := 0
	for key, count := range counts {
		v := repr[key]
		if count > bestCount || (count == bestCount && valueLess(v, best)) {
			best = v
			bestCount = count
		}
	}
	return best, true
}

func valueLess(a, b dataset.Value) bool {
	af, aok := a.Float()
	bf, bok := b.Float()
	if aok && bok {
		return af < bf
	}
	return strings.Compare(a.String(), b.String()) < 0
}

// numericValue keeps integral fills as integers so integer columns stay
// integer-typed after filling.
func numericValue(f float64) dataset.Value {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return dataset.IntValue(int64(f))
	}
	return dataset.FloatValue(f)
}

func valueFromAny(v any) dataset.Value {
	switch x := v.(type) {
	case string:
		parsed := dataset.ParseCell(x)
		if parsed.IsMissing() {
			return dataset.StringValue(x)
		}
		return parsed
	case float64:
		return numericValue(x)
	case float32:
		return numericValue(float64(x))
	case int:
		return dataset.IntValue(int64(x))
	case int64:
		return dataset.IntValue(x)
	case bool:
		return dataset.BoolValue(x)
	case time.Time:
		return dataset.TimeValue(x)
	default:
		return dataset.StringValue(fmt.Sprintf("%v", x))
	}
}
