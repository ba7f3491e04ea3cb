package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tableprep/tableprep-go/pkg/dataset"
)

func col(name string, cells ...dataset.Value) *dataset.Column {
	return &dataset.Column{Name: name, Cells: cells}
}

func intCells(values ...int64) []dataset.Value {
	out := make([]dataset.Value, len(values))
	for i, v := range values {
		out[i] = dataset.IntValue(v)
	}
	return out
}

// sequence returns n integer cells 0..n-1.
func sequence(n int) []dataset.Value {
	out := make([]dataset.Value, n)
	for i := range out {
		out[i] = dataset.IntValue(int64(i))
	}
	return out
}

// cycle returns n string cells drawn round-robin from labels.
func cycle(n int, labels ...string) []dataset.Value {
	out := make([]dataset.Value, n)
	for i := range out {
		out[i] = dataset.StringValue(labels[i%len(labels)])
	}
	return out
}

// TestPrepareData_TargetResolution covers explicit names, the distinct-count
// heuristic and the last-column fallback.
func TestPrepareData_TargetResolution(t *testing.T) {
	tests := []struct {
		name      string
		ds        *dataset.Dataset
		requested string
		want      string
	}{
		{
			name: "explicit column wins",
			ds: &dataset.Dataset{Name: "t", Columns: []*dataset.Column{
				col("a", sequence(21)...),
				col("b", cycle(21, "x", "y", "z")...),
			}},
			requested: "a",
			want:      "a",
		},
		{
			name: "first column with 2 to 20 distinct values",
			ds: &dataset.Dataset{Name: "t", Columns: []*dataset.Column{
				col("a", sequence(21)...),
				col("b", cycle(21, "x", "y", "z")...),
				col("c", cycle(21, "p", "q")...),
			}},
			requested: "missing",
			want:      "b",
		},
		{
			name: "fallback to last column",
			ds: &dataset.Dataset{Name: "t", Columns: []*dataset.Column{
				col("a", sequence(21)...),
				col("b", sequence(21)...),
			}},
			requested: "",
			want:      "b",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prep, err := PrepareData(tc.ds, tc.requested)
			require.NoError(t, err)
			assert.Equal(t, tc.want, prep.TargetColumn)
		})
	}
}

// TestPrepareData_ProblemType checks the text / low-cardinality /
// high-cardinality split.
func TestPrepareData_ProblemType(t *testing.T) {
	tests := []struct {
		name   string
		target []dataset.Value
		want   string
	}{
		{"text target", cycle(12, "spam", "ham"), ProblemClassification},
		{"numeric under ten distinct", intCells(1, 2, 3, 1, 2, 3, 1, 2, 3, 1, 2, 3), ProblemClassification},
		{"numeric ten or more distinct", sequence(12), ProblemRegression},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ds := &dataset.Dataset{Name: "t", Columns: []*dataset.Column{
				col("feature", sequence(12)...),
				col("target", tc.target...),
			}}
			prep, err := PrepareData(ds, "target")
			require.NoError(t, err)
			assert.Equal(t, tc.want, prep.ProblemType)
		})
	}
}

// TestPrepareData_DropsMissingRows drops any row with a missing cell before
// lowering and fails below ten survivors.
func TestPrepareData_DropsMissingRows(t *testing.T) {
	feature := sequence(12)
	feature[3] = dataset.MissingValue()
	feature[7] = dataset.MissingValue()
	ds := &dataset.Dataset{Name: "t", Columns: []*dataset.Column{
		col("feature", feature...),
		col("target", sequence(12)...),
	}}

	prep, err := PrepareData(ds, "target")
	require.NoError(t, err)
	assert.Len(t, prep.Features, 10)
	assert.Len(t, prep.Target, 10)
	assert.NotContains(t, prep.Target, float64(3))
	assert.NotContains(t, prep.Target, float64(7))
}

// TestPrepareData_InsufficientRows fails with InsufficientDataError when
// fewer than ten rows survive the missing-value filter.
func TestPrepareData_InsufficientRows(t *testing.T) {
	feature := sequence(12)
	for _, i := range []int{1, 4, 8} {
		feature[i] = dataset.MissingValue()
	}
	ds := &dataset.Dataset{Name: "t", Columns: []*dataset.Column{
		col("feature", feature...),
		col("target", sequence(12)...),
	}}

	_, err := PrepareData(ds, "target")
	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 9, insufficient.Rows)
	assert.Equal(t, MinPrepareRows, insufficient.Minimum)
}

// TestPrepareData_EncodesTextFeatures label-encodes text columns with codes
// assigned in sorted order.
func TestPrepareData_EncodesTextFeatures(t *testing.T) {
	ds := &dataset.Dataset{Name: "t", Columns: []*dataset.Column{
		col("color", cycle(12, "red", "blue", "green")...),
		col("target", sequence(12)...),
	}}

	prep, err := PrepareData(ds, "target")
	require.NoError(t, err)
	require.Equal(t, []string{"color"}, prep.FeatureNames)

	// sorted: blue=0, green=1, red=2; rows cycle red, blue, green.
	want := []float64{2, 0, 1}
	for i, row := range prep.Features {
		assert.Equal(t, want[i%3], row[0], "row %d", i)
	}
}

// TestPrepareData_EncodesTargetLabels maps a text target onto dense codes
// and records the mapping.
func TestPrepareData_EncodesTargetLabels(t *testing.T) {
	ds := &dataset.Dataset{Name: "t", Columns: []*dataset.Column{
		col("feature", sequence(12)...),
		col("label", cycle(12, "yes", "no")...),
	}}

	prep, err := PrepareData(ds, "label")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"no": 0, "yes": 1}, prep.TargetLabels)
	assert.Equal(t, float64(1), prep.Target[0])
	assert.Equal(t, float64(0), prep.Target[1])
}

// TestPrepareData_BooleanAndTemporalFeatures lowers booleans to 0/1 and
// datetimes to epoch seconds.
func TestPrepareData_BooleanAndTemporalFeatures(t *testing.T) {
	flags := make([]dataset.Value, 12)
	stamps := make([]dataset.Value, 12)
	for i := range flags {
		flags[i] = dataset.BoolValue(i%2 == 0)
		ts, ok := dataset.ParseTime(fmt.Sprintf("2024-01-%02d", i+1))
		require.True(t, ok)
		stamps[i] = dataset.TimeValue(ts)
	}
	ds := &dataset.Dataset{Name: "t", Columns: []*dataset.Column{
		col("flag", flags...),
		col("when", stamps...),
		col("target", sequence(12)...),
	}}

	prep, err := PrepareData(ds, "target")
	require.NoError(t, err)
	assert.Equal(t, float64(1), prep.Features[0][0])
	assert.Equal(t, float64(0), prep.Features[1][0])
	assert.Greater(t, prep.Features[1][1], prep.Features[0][1])
}

// TestPrepareData_DoesNotMutateInput leaves the caller's dataset untouched.
func TestPrepareData_DoesNotMutateInput(t *testing.T) {
	feature := sequence(12)
	feature[2] = dataset.MissingValue()
	ds := &dataset.Dataset{Name: "t", Columns: []*dataset.Column{
		col("feature", feature...),
		col("target", cycle(12, "a", "b")...),
	}}
	snapshot := ds.Copy()

	_, err := PrepareData(ds, "target")
	require.NoError(t, err)
	assert.Equal(t, snapshot, ds)
}

// TestPrepareData_EmptyDataset rejects a dataset with no columns.
func TestPrepareData_EmptyDataset(t *testing.T) {
	_, err := PrepareData(dataset.New("empty"), "")
	var insufficient *InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))
}

// TestSplitIndices_Deterministic produces identical disjoint partitions for
// the same seed.
func TestSplitIndices_Deterministic(t *testing.T) {
	train1, test1 := splitIndices(50, 0.2, splitSeed)
	train2, test2 := splitIndices(50, 0.2, splitSeed)
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)

	assert.Len(t, train1, 40)
	assert.Len(t, test1, 10)

	seen := make(map[int]bool, 50)
	for _, i := range append(append([]int{}, train1...), test1...) {
		assert.False(t, seen[i], "index %d assigned twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 50)
}

// TestFitScaler_StandardizesColumns centers to zero mean and unit variance
// and passes constant columns through as zeros.
func TestFitScaler_StandardizesColumns(t *testing.T) {
	features := [][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}}
	scaled := fitScaler(features).transform(features)

	var mean, sumSq float64
	for _, row := range scaled {
		mean += row[0]
	}
	mean /= 4
	for _, row := range scaled {
		sumSq += (row[0] - mean) * (row[0] - mean)
	}
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 1, sumSq/4, 1e-9)
	for _, row := range scaled {
		assert.Zero(t, row[1])
	}
}
