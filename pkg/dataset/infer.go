package dataset

import (
	"strconv"
	"strings"
	"time"
)

// missingTokens are the raw strings treated as missing markers on load,
// matching the conventions of common CSV producers.
var missingTokens = map[string]struct{}{
	"":     {},
	"null": {},
	"NULL": {},
	"None": {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
}

// timeFormats are tried in order when inferring datetime cells.
var timeFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	time.RFC3339,
	time.RFC822,
}

// IsMissingToken reports whether a raw string is one of the recognized
// missing markers.
func IsMissingToken(raw string) bool {
	_, ok := missingTokens[strings.TrimSpace(raw)]
	return ok
}

// ParseCell infers the kind of a raw string and returns the typed cell.
// Inference tries integer, float, boolean and datetime in that order and
// falls back to string.
func ParseCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if IsMissingToken(s) {
		return MissingValue()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FloatValue(f)
	}
	switch s {
	case "true", "True", "TRUE":
		return BoolValue(true)
	case "false", "False", "FALSE":
		return BoolValue(false)
	}
	if t, ok := ParseTime(s); ok {
		return TimeValue(t)
	}
	return StringValue(s)
}

// ParseTime attempts to parse a datetime using the supported formats.
func ParseTime(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// columnsFromRecords builds typed columns from a header row and data rows.
// Duplicate header names are deduplicated with a numeric suffix. Short rows
// are padded with missing cells; the caller guarantees no row is longer
// than the header.
func columnsFromRecords(header []string, records [][]string) []*Column {
	names := dedupeHeader(header)
	cols := make([]*Column, len(names))
	for i, name := range names {
		cols[i] = &Column{Name: name, Cells: make([]Value, 0, len(records))}
	}
	for _, rec := range records {
		for i := range cols {
			if i < len(rec) {
				cols[i].Cells = append(cols[i].Cells, ParseCell(rec[i]))
			} else {
				cols[i].Cells = append(cols[i].Cells, MissingValue())
			}
		}
	}
	return cols
}

// dedupeHeader renames repeated header fields a, a -> a, a.1 so column
// names stay unique. Blank headers become positional names.
func dedupeHeader(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]struct{}, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = "column_" + strconv.Itoa(i)
		}
		if _, dup := used[name]; dup {
			for n := 1; ; n++ {
				candidate := name + "." + strconv.Itoa(n)
				if _, taken := used[candidate]; !taken {
					name = candidate
					break
				}
			}
		}
		used[name] = struct{}{}
		names[i] = name
	}
	return names
}
