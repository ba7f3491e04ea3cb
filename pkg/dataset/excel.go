package dataset

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads the given sheet of an Excel workbook into a dataset. An
// empty sheet name selects the first sheet. The first row is the header.
func LoadXLSX(path, sheet string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Path: path, Err: errors.New("sheet is empty, expected a header row")}
	}

	header := rows[0]
	records := rows[1:]
	// excelize trims trailing empty cells per row; columnsFromRecords pads
	// short rows with missing cells.
	for _, rec := range records {
		if len(rec) > len(header) {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("row has %d cells, header has %d", len(rec), len(header))}
		}
	}

	ds := &Dataset{Name: datasetName(path), Columns: columnsFromRecords(header, records)}
	return ds, nil
}
