package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// WriteCSV streams the dataset as CSV with a header row. Missing cells are
// written as empty fields.
func WriteCSV(d *Dataset, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, d.Cols())
	for i := 0; i < d.Rows(); i++ {
		for j, c := range d.Columns {
			rec[j] = c.Cells[i].String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the dataset to a CSV file.
func SaveCSV(d *Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(d, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteXLSX streams the dataset as an Excel workbook with a single sheet.
func WriteXLSX(d *Dataset, w io.Writer, sheet string) error {
	f, err := buildWorkbook(d, sheet)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// SaveXLSX writes the dataset to an Excel workbook with a single sheet.
func SaveXLSX(d *Dataset, path, sheet string) error {
	f, err := buildWorkbook(d, sheet)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func buildWorkbook(d *Dataset, sheet string) (*excelize.File, error) {
	if sheet == "" {
		sheet = "Sheet1"
	}
	f := excelize.NewFile()

	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	for col, name := range d.ColumnNames() {
		if err := f.SetCellValue(sheet, cellName(col+1, 1), name); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	for i := 0; i < d.Rows(); i++ {
		for j, c := range d.Columns {
			v := c.Cells[i]
			if v.Missing {
				continue
			}
			if err := f.SetCellValue(sheet, cellName(j+1, i+2), v.Native()); err != nil {
				f.Close()
				return nil, fmt.Errorf("write row %d: %w", i, err)
			}
		}
	}
	return f, nil
}

// cellName converts 1-based coordinates to an A1-style cell reference.
// Coordinates here are always positive, so the error cannot fire.
func cellName(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}
