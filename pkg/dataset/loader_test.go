package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoadCSV_TypeInference verifies per-cell kind inference on load
func TestLoadCSV_TypeInference(t *testing.T) {
	path := writeTempCSV(t, "id,price,active,joined,note\n1,9.99,true,2024-01-15,hello\n2,12.50,false,2024-02-20,world\n")

	ds, err := LoadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, "data", ds.Name)
	assert.Equal(t, Shape{Rows: 2, Columns: 5}, ds.Shape())
	assert.Equal(t, ClassNumeric, ds.Columns[0].Class())
	assert.Equal(t, ClassNumeric, ds.Columns[1].Class())
	assert.Equal(t, ClassBoolean, ds.Columns[2].Class())
	assert.Equal(t, ClassTemporal, ds.Columns[3].Class())
	assert.Equal(t, ClassText, ds.Columns[4].Class())

	assert.Equal(t, KindInt, ds.Columns[0].Cells[0].Kind)
	assert.Equal(t, 9.99, ds.Columns[1].Cells[0].Num)
}

// TestLoadCSV_MissingTokens verifies the recognized missing markers
func TestLoadCSV_MissingTokens(t *testing.T) {
	path := writeTempCSV(t, "a,b,c,d\n,null,N/A,ok\nNaN,None,NA,fine\nnan,NULL,1,last\n")

	ds, err := LoadCSV(path)
	require.NoError(t, err)

	a, _ := ds.Column("a")
	b, _ := ds.Column("b")
	c, _ := ds.Column("c")
	assert.Equal(t, 3, a.MissingCount())
	assert.Equal(t, 3, b.MissingCount())
	assert.Equal(t, 2, c.MissingCount())

	d, _ := ds.Column("d")
	assert.Zero(t, d.MissingCount())
}

// TestLoadCSV_RaggedRows verifies malformed input surfaces as ParseError
func TestLoadCSV_RaggedRows(t *testing.T) {
	path := writeTempCSV(t, "a,b,c\n1,2,3\n4,5\n")

	_, err := LoadCSV(path)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, path, perr.Path)
}

// TestLoadCSV_EmptyFile verifies a missing header is rejected
func TestLoadCSV_EmptyFile(t *testing.T) {
	path := writeTempCSV(t, "")
	_, err := LoadCSV(path)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

// TestLoadCSV_HeaderOnly verifies a zero-row dataset loads cleanly
func TestLoadCSV_HeaderOnly(t *testing.T) {
	path := writeTempCSV(t, "a,b\n")
	ds, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, Shape{Rows: 0, Columns: 2}, ds.Shape())
}

// TestLoadCSV_DuplicateHeaders verifies repeated names get numeric suffixes
func TestLoadCSV_DuplicateHeaders(t *testing.T) {
	path := writeTempCSV(t, "x,x,x\n1,2,3\n")
	ds, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x.1", "x.2"}, ds.ColumnNames())
}

// TestLoad_UnsupportedFormat verifies the extension dispatch rejects unknowns
func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := Load("data.parquet")
	var uerr *UnsupportedFormatError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, ".parquet", uerr.Format)

	assert.True(t, SupportedExtension("report.CSV"))
	assert.True(t, SupportedExtension("report.xlsx"))
	assert.False(t, SupportedExtension("report.json"))
}

// TestWriteCSV_RoundTrip verifies values and missing cells survive export
func TestWriteCSV_RoundTrip(t *testing.T) {
	ds := &Dataset{Columns: []*Column{
		{Name: "n", Cells: []Value{IntValue(1), MissingValue()}},
		{Name: "s", Cells: []Value{StringValue("a"), StringValue("b")}},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(ds, &buf))
	assert.Equal(t, "n,s\n1,a\n,b\n", buf.String())

	back, err := ReadCSV(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, ds.Shape(), back.Shape())
	assert.True(t, back.Columns[0].Cells[1].IsMissing())
}

// TestSaveXLSX_RoundTrip verifies Excel export and reload preserve the table
func TestSaveXLSX_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xlsx")

	ds := &Dataset{Name: "out", Columns: []*Column{
		{Name: "id", Cells: []Value{IntValue(1), IntValue(2), IntValue(3)}},
		{Name: "label", Cells: []Value{StringValue("x"), MissingValue(), StringValue("z")}},
	}}
	require.NoError(t, SaveXLSX(ds, path, "data"))

	back, err := LoadXLSX(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "label"}, back.ColumnNames())
	assert.Equal(t, 3, back.Rows())
	assert.Equal(t, ClassNumeric, back.Columns[0].Class())
	assert.True(t, back.Columns[1].Cells[1].IsMissing())

	viaLoad, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, back.Shape(), viaLoad.Shape())
}

// TestParseCell verifies inference order over raw strings
func TestParseCell(t *testing.T) {
	tests := []struct {
		raw  string
		kind Kind
	}{
		{"42", KindInt},
		{"-7", KindInt},
		{"3.14", KindFloat},
		{"1e3", KindFloat},
		{"true", KindBool},
		{"False", KindBool},
		{"2024-06-01", KindTime},
		{"01/02/2006", KindTime},
		{"hello", KindString},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			v := ParseCell(tc.raw)
			require.False(t, v.IsMissing())
			assert.Equal(t, tc.kind, v.Kind)
		})
	}

	assert.True(t, ParseCell("  NA  ").IsMissing())
	assert.True(t, ParseCell("").IsMissing())
}
