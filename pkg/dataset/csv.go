package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Clever/csvlint"
)

// LoadCSV reads a CSV file with a header row into a dataset. The file is
// linted before parsing so malformed input surfaces as a ParseError with a
// line number instead of a half-loaded table.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	invalids, _, err := csvlint.Validate(f, rune(','), true)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if len(invalids) > 0 {
		first := invalids[0]
		return nil, &ParseError{Path: path, Line: first.Num, Err: errors.New(first.Error())}
	}

	f, err = os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	ds, err := ReadCSV(f)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	ds.Name = datasetName(path)
	return ds, nil
}

// ReadCSV parses CSV content with a header row from r.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ParseError{Err: errors.New("file is empty, expected a header row")}
	}
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.Line
			}
			return nil, &ParseError{Line: line, Err: err}
		}
		records = append(records, rec)
	}

	return &Dataset{Columns: columnsFromRecords(header, records)}, nil
}

// datasetName derives a dataset name from a file path.
func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
