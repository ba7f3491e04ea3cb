package dataset

import (
	"strconv"
	"time"
)

// Kind identifies the primitive type carried by a single cell.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindCategory
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindTime:
		return "datetime"
	case KindCategory:
		return "category"
	default:
		return "unknown"
	}
}

// Value is a single cell. Missing cells carry no payload; all other cells
// carry exactly one of the payload fields according to Kind.
type Value struct {
	Kind    Kind
	Missing bool
	Str     string
	Num     float64
	Bool    bool
	Time    time.Time
}

// MissingValue returns the canonical missing cell.
func MissingValue() Value {
	return Value{Missing: true}
}

// StringValue creates a string cell.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// IntValue creates an integer cell.
func IntValue(i int64) Value {
	return Value{Kind: KindInt, Num: float64(i)}
}

// FloatValue creates a float cell.
func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Num: f}
}

// BoolValue creates a boolean cell.
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// TimeValue creates a datetime cell.
func TimeValue(t time.Time) Value {
	return Value{Kind: KindTime, Time: t}
}

// CategoryValue creates a categorical cell with the given label.
func CategoryValue(label string) Value {
	return Value{Kind: KindCategory, Str: label}
}

// IsMissing reports whether the cell is a missing marker.
func (v Value) IsMissing() bool {
	return v.Missing
}

// IsNumeric reports whether the cell carries an integer or float payload.
func (v Value) IsNumeric() bool {
	return !v.Missing && (v.Kind == KindInt || v.Kind == KindFloat)
}

// Float returns the numeric payload. The second return is false for missing
// and non-numeric cells.
func (v Value) Float() (float64, bool) {
	if !v.IsNumeric() {
		return 0, false
	}
	return v.Num, true
}

// String renders the cell for display, export and fingerprinting. Missing
// cells render as the empty string.
func (v Value) String() string {
	if v.Missing {
		return ""
	}
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(int64(v.Num), 10)
	case KindFloat:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 {
			return v.Time.Format("2006-01-02")
		}
		return v.Time.Format("2006-01-02 15:04:05")
	default:
		return v.Str
	}
}

// Native returns the payload as an interface for serialization (JSON, XLSX).
// Missing cells map to nil.
func (v Value) Native() any {
	if v.Missing {
		return nil
	}
	switch v.Kind {
	case KindInt:
		return int64(v.Num)
	case KindFloat:
		return v.Num
	case KindBool:
		return v.Bool
	case KindTime:
		return v.Time
	default:
		return v.Str
	}
}

// Equal reports cell equality as used for duplicate-row detection: missing
// equals missing, and otherwise kind and payload must match.
func (v Value) Equal(o Value) bool {
	if v.Missing || o.Missing {
		return v.Missing && o.Missing
	}
	if v.Kind != o.Kind {
		// Integers and floats compare by numeric value so 2 == 2.0.
		if v.IsNumeric() && o.IsNumeric() {
			return v.Num == o.Num
		}
		return false
	}
	switch v.Kind {
	case KindInt, KindFloat:
		return v.Num == o.Num
	case KindBool:
		return v.Bool == o.Bool
	case KindTime:
		return v.Time.Equal(o.Time)
	default:
		return v.Str == o.Str
	}
}
