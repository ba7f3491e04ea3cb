package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tableprep/tableprep-go/pkg/dataset"
)

// TestFillMissing_Mean verifies the mean fill on a numeric column
func TestFillMissing_Mean(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		col("v", dataset.IntValue(1), dataset.MissingValue(), dataset.IntValue(3), dataset.MissingValue()),
	}})

	require.NoError(t, eng.FillMissing("v", "mean", nil))

	c := eng.Dataset().Columns[0]
	f1, _ := c.Cells[1].Float()
	f3, _ := c.Cells[3].Float()
	assert.InDelta(t, 2.0, f1, 1e-9)
	assert.InDelta(t, 2.0, f3, 1e-9)
	assert.Zero(t, c.MissingCount())

	require.Len(t, eng.Log(), 1)
	rec := eng.Log()[0]
	assert.Equal(t, StepFillMissing, rec.Kind)
	assert.Equal(t, 2, rec.Outcome["missing_count"])
	assert.Equal(t, "2", rec.Outcome["fill_value"])
}

// TestFillMissing_Median verifies the median fill keeps fractional values
func TestFillMissing_Median(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		col("v", dataset.IntValue(1), dataset.IntValue(2), dataset.IntValue(4), dataset.IntValue(10), dataset.MissingValue()),
	}})

	require.NoError(t, eng.FillMissing("v", "median", nil))
	f, _ := eng.Dataset().Columns[0].Cells[4].Float()
	assert.InDelta(t, 3.0, f, 1e-9)
}

// TestFillMissing_MeanOnText verifies the incompatible-method failure
func TestFillMissing_MeanOnText(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		col("s", dataset.StringValue("a"), dataset.MissingValue()),
	}})

	err := eng.FillMissing("s", "mean", nil)
	var incompatible *IncompatibleMethodError
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, "mean", incompatible.Method)
	assert.Empty(t, eng.Log())
	assert.True(t, eng.Dataset().Columns[0].Cells[1].IsMissing())
}

// TestFillMissing_ModeTieBreak verifies ties resolve to the smallest value
func TestFillMissing_ModeTieBreak(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		col("s", dataset.StringValue("b"), dataset.StringValue("a"), dataset.StringValue("a"),
			dataset.StringValue("b"), dataset.MissingValue()),
		col("n", dataset.IntValue(10), dataset.IntValue(2), dataset.IntValue(10),
			dataset.IntValue(2), dataset.MissingValue()),
	}})

	require.NoError(t, eng.FillMissing("s", "mode", nil))
	assert.Equal(t, "a", eng.Dataset().Columns[0].Cells[4].Str)

	// Numeric ties compare numerically, not lexicographically.
	require.NoError(t, eng.FillMissing("n", "mode", nil))
	f, _ := eng.Dataset().Columns[1].Cells[4].Float()
	assert.InDelta(t, 2, f, 1e-9)
}

// TestFillMissing_Custom verifies caller-supplied fill values
func TestFillMissing_Custom(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		col("v", dataset.MissingValue(), dataset.IntValue(1)),
		col("s", dataset.MissingValue(), dataset.StringValue("x")),
	}})

	require.NoError(t, eng.FillMissing("v", "custom", 7.0))
	assert.Equal(t, int64(7), eng.Dataset().Columns[0].Cells[0].Native())

	require.NoError(t, eng.FillMissing("s", "custom", "unknown"))
	assert.Equal(t, "unknown", eng.Dataset().Columns[1].Cells[0].Str)
}

// TestFillMissing_ForwardFill verifies propagation and surviving leading gaps
func TestFillMissing_ForwardFill(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		col("v",
			dataset.MissingValue(),
			dataset.IntValue(1),
			dataset.MissingValue(),
			dataset.MissingValue(),
			dataset.IntValue(2),
			dataset.MissingValue(),
		),
	}})

	require.NoError(t, eng.FillMissing("v", "forward_fill", nil))

	c := eng.Dataset().Columns[0]
	assert.True(t, c.Cells[0].IsMissing(), "leading gap stays missing")
	assert.Equal(t, int64(1), c.Cells[2].Native())
	assert.Equal(t, int64(1), c.Cells[3].Native())
	assert.Equal(t, int64(2), c.Cells[5].Native())
	assert.Equal(t, 3, eng.Log()[0].Outcome["missing_count"])
	assert.Equal(t, "N/A", eng.Log()[0].Outcome["fill_value"])
}

// TestFillMissing_BackwardFill verifies reverse propagation
func TestFillMissing_BackwardFill(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		col("v", dataset.MissingValue(), dataset.IntValue(5), dataset.MissingValue()),
	}})

	require.NoError(t, eng.FillMissing("v", "backward_fill", nil))

	c := eng.Dataset().Columns[0]
	assert.Equal(t, int64(5), c.Cells[0].Native())
	assert.True(t, c.Cells[2].IsMissing(), "trailing gap stays missing")
}

// TestFillMissing_Default verifies the zero-or-empty fallback
func TestFillMissing_Default(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		col("n", dataset.MissingValue(), dataset.FloatValue(1.5)),
		col("s", dataset.MissingValue(), dataset.StringValue("x")),
	}})

	require.NoError(t, eng.FillMissing("n", "", nil))
	require.NoError(t, eng.FillMissing("s", "default", nil))

	assert.Equal(t, int64(0), eng.Dataset().Columns[0].Cells[0].Native())
	assert.Equal(t, "", eng.Dataset().Columns[1].Cells[0].Str)
	assert.False(t, eng.Dataset().Columns[1].Cells[0].IsMissing())
}

// TestFillMissing_NothingToDo verifies no-ops log nothing
func TestFillMissing_NothingToDo(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{
		ints("full", 1, 2, 3),
		col("empty", dataset.MissingValue(), dataset.MissingValue(), dataset.MissingValue()),
	}})

	require.NoError(t, eng.FillMissing("full", "mean", nil))
	// Mean of a fully missing column cannot be computed, so nothing happens.
	require.NoError(t, eng.FillMissing("empty", "mean", nil))
	require.NoError(t, eng.FillMissing("empty", "mode", nil))
	require.NoError(t, eng.FillMissing("empty", "forward_fill", nil))

	assert.Empty(t, eng.Log())
	assert.Equal(t, 3, eng.Dataset().Columns[1].MissingCount())
}

// TestFillMissing_UnknownColumn verifies the loud lookup failure
func TestFillMissing_UnknownColumn(t *testing.T) {
	eng := NewEngine(&dataset.Dataset{Columns: []*dataset.Column{ints("a", 1)}})
	var notFound *dataset.ColumnNotFoundError
	require.ErrorAs(t, eng.FillMissing("b", "mean", nil), &notFound)
}
