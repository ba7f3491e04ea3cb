package transform

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tableprep/tableprep-go/pkg/dataset"
)

// ChangeDataType re-types every cell of the named column. Cells that
// cannot be represented in the target type become missing; string and
// category conversions always succeed and leave missing cells missing.
func (e *Engine) ChangeDataType(name, targetType string) error {
	col, err := e.ds.Column(name)
	if err != nil {
		return &TypeConversionError{Column: name, TargetType: targetType, Err: err}
	}

	var convert func(dataset.Value) dataset.Value
	switch targetType {
	case "numeric":
		convert = toNumeric
	case "integer":
		convert = toInteger
	case "float":
		convert = toFloat
	case "datetime":
		convert = toDatetime
	case "string":
		convert = toString
	case "category":
		// Values keep their payloads; the column itself is re-marked.
	default:
		return &TypeConversionError{Column: name, TargetType: targetType, Err: fmt.Errorf("unsupported target type")}
	}

	coerced := 0
	if targetType == "category" {
		col.Categorical = true
	} else {
		col.Categorical = false
		for i, v := range col.Cells {
			out := convert(v)
			if out.IsMissing() && !v.IsMissing() {
				coerced++
			}
			col.Cells[i] = out
		}
	}

	outcome := map[string]any{"new_type": targetType}
	if coerced > 0 {
		outcome["coerced_to_missing"] = coerced
	}
	e.record(StepRecord{
		Kind:    StepChangeType,
		Details: fmt.Sprintf("Changed %s to %s", name, targetType),
		Column:  name,
		Method:  targetType,
		Outcome: outcome,
	})
	return nil
}

func toNumeric(v dataset.Value) dataset.Value {
	switch {
	case v.IsMissing():
		return v
	case v.IsNumeric():
		return v
	case v.Kind == dataset.KindBool:
		if v.Bool {
			return dataset.IntValue(1)
		}
		return dataset.IntValue(0)
	case v.Kind == dataset.KindString || v.Kind == dataset.KindCategory:
		if i, err := strconv.ParseInt(v.Str, 10, 64); err == nil {
			return dataset.IntValue(i)
		}
		if f, err := strconv.ParseFloat(v.Str, 64); err == nil {
			return dataset.FloatValue(f)
		}
	}
	return dataset.MissingValue()
}

func toInteger(v dataset.Value) dataset.Value {
	n := toNumeric(v)
	if n.IsMissing() {
		return n
	}
	if n.Kind == dataset.KindInt {
		return n
	}
	if f := n.Num; f == math.Trunc(f) && !math.IsInf(f, 0) {
		return dataset.IntValue(int64(f))
	}
	return dataset.MissingValue()
}

func toFloat(v dataset.Value) dataset.Value {
	n := toNumeric(v)
	if n.IsMissing() {
		return n
	}
	return dataset.FloatValue(n.Num)
}

func toDatetime(v dataset.Value) dataset.Value {
	switch {
	case v.IsMissing():
		return v
	case v.Kind == dataset.KindTime:
		return v
	case v.Kind == dataset.KindString || v.Kind == dataset.KindCategory:
		if t, ok := dataset.ParseTime(v.Str); ok {
			return dataset.TimeValue(t)
		}
	}
	return dataset.MissingValue()
}

func toString(v dataset.Value) dataset.Value {
	if v.IsMissing() {
		return v
	}
	return dataset.StringValue(v.String())
}
