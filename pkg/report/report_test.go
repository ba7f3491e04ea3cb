package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tableprep/tableprep-go/pkg/dataset"
	"github.com/tableprep/tableprep-go/pkg/transform"
)

// TestBuild verifies shapes, deltas and per-column summaries
func TestBuild(t *testing.T) {
	original := &dataset.Dataset{Name: "sales", Columns: []*dataset.Column{
		{Name: "a", Cells: []dataset.Value{dataset.IntValue(1), dataset.MissingValue(), dataset.IntValue(1)}},
		{Name: "b", Cells: []dataset.Value{dataset.StringValue("x"), dataset.StringValue("y"), dataset.StringValue("x")}},
	}}
	final := &dataset.Dataset{Name: "sales", Columns: []*dataset.Column{
		{Name: "a", Cells: []dataset.Value{dataset.IntValue(1), dataset.IntValue(2)}},
	}}
	steps := []transform.StepRecord{
		{Kind: transform.StepDropColumn, Column: "b"},
		{Kind: transform.StepRemoveDuplicates},
	}

	r := Build(original, final, steps)

	assert.Equal(t, "sales", r.DatasetName)
	assert.Equal(t, dataset.Shape{Rows: 3, Columns: 2}, r.OriginalShape)
	assert.Equal(t, dataset.Shape{Rows: 2, Columns: 1}, r.FinalShape)
	assert.Equal(t, 1, r.ColumnsDropped)
	assert.Equal(t, 1, r.DuplicatesRemoved)
	assert.Equal(t, map[string]int{"a": 1, "b": 0}, r.MissingBefore)
	assert.Equal(t, map[string]int{"a": 0}, r.MissingAfter)
	assert.Equal(t, map[string]string{"a": "numeric"}, r.Dtypes)
	assert.Len(t, r.Steps, 2)
	assert.False(t, r.GeneratedAt.IsZero())
}

// TestBuild_NegativeColumnDelta verifies net counts may go negative
func TestBuild_NegativeColumnDelta(t *testing.T) {
	original := &dataset.Dataset{Columns: []*dataset.Column{
		{Name: "color", Cells: []dataset.Value{dataset.StringValue("r")}},
	}}
	final := &dataset.Dataset{Columns: []*dataset.Column{
		{Name: "color_r", Cells: []dataset.Value{dataset.BoolValue(true)}},
		{Name: "color_missing", Cells: []dataset.Value{dataset.BoolValue(false)}},
	}}

	r := Build(original, final, nil)
	assert.Equal(t, -1, r.ColumnsDropped)
	assert.NotNil(t, r.Steps)
	assert.Empty(t, r.Steps)
}

// TestWritePDF verifies the renderer produces a parseable document header
func TestWritePDF(t *testing.T) {
	original := &dataset.Dataset{Name: "t", Columns: []*dataset.Column{
		{Name: "a", Cells: []dataset.Value{dataset.IntValue(1)}},
	}}
	r := Build(original, original.Copy(), []transform.StepRecord{
		{Kind: transform.StepFillMissing, Details: "Filled 2 missing values in a with mean", Column: "a"},
	})

	var buf bytes.Buffer
	require.NoError(t, WritePDF(r, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 500)
}

// TestSavePDF verifies the file variant writes the same document to disk
func TestSavePDF(t *testing.T) {
	original := &dataset.Dataset{Name: "t", Columns: []*dataset.Column{
		{Name: "a", Cells: []dataset.Value{dataset.IntValue(1)}},
	}}
	r := Build(original, original.Copy(), nil)

	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, SavePDF(r, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
