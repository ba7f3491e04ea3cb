package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders the report as a one-page-or-more PDF document.
func WritePDF(r *Report, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	title := "Preparation Report"
	if r.DatasetName != "" {
		title = fmt.Sprintf("Preparation Report: %s", r.DatasetName)
	}
	pdf.Cell(0, 10, title)
	pdf.Ln(15)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", r.GeneratedAt.Format("2006-01-02 15:04:05")))
	pdf.Ln(10)

	writeSummary(pdf, r)
	writeSteps(pdf, r)
	writeMissing(pdf, r)

	return pdf.Output(w)
}

// SavePDF renders the report to a file.
func SavePDF(r *Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePDF(r, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeSummary(pdf *gofpdf.Fpdf, r *Report) {
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	lines := []string{
		fmt.Sprintf("Original shape: %s", r.OriginalShape),
		fmt.Sprintf("Final shape: %s", r.FinalShape),
		fmt.Sprintf("Net columns dropped: %d", r.ColumnsDropped),
		fmt.Sprintf("Net rows removed: %d", r.DuplicatesRemoved),
		fmt.Sprintf("Steps applied: %d", len(r.Steps)),
	}
	for _, line := range lines {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)
}

func writeSteps(pdf *gofpdf.Fpdf, r *Report) {
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Steps")
	pdf.Ln(10)

	if len(r.Steps) == 0 {
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, "No steps were applied")
		pdf.Ln(10)
		return
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(255, 200, 100)
	pdf.CellFormat(12, 8, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, "Step", "1", 0, "C", true, 0, "")
	pdf.CellFormat(118, 8, "Details", "1", 0, "C", true, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, step := range r.Steps {
		if i%2 == 1 {
			pdf.SetFillColor(240, 240, 240)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.CellFormat(12, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 7, step.Kind, "1", 0, "L", true, 0, "")
		pdf.CellFormat(118, 7, truncate(step.Details, 80), "1", 0, "L", true, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func writeMissing(pdf *gofpdf.Fpdf, r *Report) {
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Missing Values")
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(255, 200, 100)
	pdf.CellFormat(70, 8, "Column", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 8, "Before", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 8, "After", "1", 0, "C", true, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(255, 255, 255)
	for _, name := range sortedKeys(r.MissingBefore) {
		after := "dropped"
		if count, ok := r.MissingAfter[name]; ok {
			after = fmt.Sprintf("%d", count)
		}
		pdf.CellFormat(70, 7, truncate(name, 40), "1", 0, "L", true, 0, "")
		pdf.CellFormat(50, 7, fmt.Sprintf("%d", r.MissingBefore[name]), "1", 0, "C", true, 0, "")
		pdf.CellFormat(50, 7, after, "1", 0, "C", true, 0, "")
		pdf.Ln(-1)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
