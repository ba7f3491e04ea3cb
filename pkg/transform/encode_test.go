package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tableprep/tableprep-go/pkg/dataset"
)

// TestEncodeCategorical_Label verifies dense sorted codes and an invertible mapping
func TestEncodeCategorical_Label(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		strs("s", "a", "b", "a", "c"),
	}})

	require.NoError(t, eng.EncodeCategorical("s", "label"))

	c := eng.Dataset().Columns[0]
	codes := make([]int64, len(c.Cells))
	for i, v := range c.Cells {
		codes[i] = v.Native().(int64)
	}
	assert.Equal(t, []int64{0, 1, 0, 2}, codes)
	assert.Equal(t, dataset.ClassNumeric, c.Class())

	require.Len(t, eng.Log(), 1)
	mapping, ok := eng.Log()[0].Outcome["mapping"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, mapping)

	// The recorded mapping must invert back to the original values.
	inverse := make(map[int]string, len(mapping))
	for value, code := range mapping {
		inverse[code] = value
	}
	assert.Equal(t, []string{"a", "b", "a", "c"}, []string{
		inverse[int(codes[0])], inverse[int(codes[1])], inverse[int(codes[2])], inverse[int(codes[3])],
	})
}

// TestEncodeCategorical_LabelKeepsMissing verifies missing cells are not coded
func TestEncodeCategorical_LabelKeepsMissing(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		col("s", dataset.StringValue("x"), dataset.MissingValue(), dataset.StringValue("y")),
	}})

	require.NoError(t, eng.EncodeCategorical("s", "label"))

	c := eng.Dataset().Columns[0]
	assert.Equal(t, int64(0), c.Cells[0].Native())
	assert.True(t, c.Cells[1].IsMissing())
	assert.Equal(t, int64(1), c.Cells[2].Native())
}

// TestEncodeCategorical_Onehot verifies expansion at the original position
func TestEncodeCategorical_Onehot(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		ints("before", 1, 2, 3),
		col("color", dataset.StringValue("red"), dataset.StringValue("blue"), dataset.MissingValue()),
		ints("after", 4, 5, 6),
	}})

	require.NoError(t, eng.EncodeCategorical("color", "onehot"))

	names := eng.Dataset().ColumnNames()
	assert.Equal(t, []string{"before", "color_blue", "color_red", "color_missing", "after"}, names)

	blue, _ := eng.Dataset().Column("color_blue")
	red, _ := eng.Dataset().Column("color_red")
	missing, _ := eng.Dataset().Column("color_missing")
	assert.Equal(t, []bool{false, true, false}, boolCells(blue))
	assert.Equal(t, []bool{true, false, false}, boolCells(red))
	assert.Equal(t, []bool{false, false, true}, boolCells(missing))

	rec := eng.Log()[0]
	assert.Equal(t, StepEncodeCategorical, rec.Kind)
	assert.Equal(t, []string{"color_blue", "color_red", "color_missing"}, rec.Outcome["columns"])
}

// TestEncodeCategorical_OnehotAlwaysAddsMissingColumn verifies the indicator
// appears even for fully populated columns
func TestEncodeCategorical_OnehotAlwaysAddsMissingColumn(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		strs("s", "a", "a"),
	}})

	require.NoError(t, eng.EncodeCategorical("s", "onehot"))

	missing, err := eng.Dataset().Column("s_missing")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, boolCells(missing))
}

// TestEncodeCategorical_NumericGuard verifies the cardinality limit
func TestEncodeCategorical_NumericGuard(t *testing.T) {
	wide := &dataset.Column{Name: "id", Cells: make([]dataset.Value, 25)}
	for i := range wide.Cells {
		wide.Cells[i] = dataset.IntValue(int64(i))
	}
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{wide}})

	err := eng.EncodeCategorical("id", "label")
	var notCat *NotCategoricalError
	require.ErrorAs(t, err, &notCat)
	assert.Equal(t, 25, notCat.Distinct)
	assert.Equal(t, 20, notCat.Limit)

	// Low-cardinality numeric columns may be encoded.
	small := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		ints("rank", 30, 10, 20),
	}})
	require.NoError(t, small.EncodeCategorical("rank", "label"))
	// Codes follow lexicographic order of the stringified values.
	c := small.Dataset().Columns[0]
	assert.Equal(t, int64(2), c.Cells[0].Native())
	assert.Equal(t, int64(0), c.Cells[1].Native())
	assert.Equal(t, int64(1), c.Cells[2].Native())
}

// TestEncodeCategorical_ConfigurableLimit verifies the override threshold
func TestEncodeCategorical_ConfigurableLimit(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		ints("v", 1, 2, 3, 4, 5),
	}})
	eng.EncodeDistinctLimit = 4

	var notCat *NotCategoricalError
	require.ErrorAs(t, eng.EncodeCategorical("v", "label"), &notCat)
	assert.Equal(t, 4, notCat.Limit)
}

// TestEncodeCategorical_Errors verifies lookup and method validation
func TestEncodeCategorical_Errors(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{strs("s", "a")}})

	var notFound *dataset.ColumnNotFoundError
	require.ErrorAs(t, eng.EncodeCategorical("t", "label"), &notFound)

	require.Error(t, eng.EncodeCategorical("s", "ordinal"))
	assert.Empty(t, eng.Log())
}

// TestEncodeCategorical_NameCollision verifies suffixing against existing columns
func TestEncodeCategorical_NameCollision(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		strs("s", "a"),
		strs("s_a", "taken"),
	}})

	require.NoError(t, eng.EncodeCategorical("s", "onehot"))
	assert.Equal(t, []string{"s_a.1", "s_missing", "s_a"}, eng.Dataset().ColumnNames())
}

func boolCells(c *dataset.Column) []bool {
	out := make([]bool, len(c.Cells))
	for i, v := range c.Cells {
		out[i] = v.Bool
	}
	return out
}
