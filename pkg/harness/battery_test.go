package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEvaluate_InsufficientRows refuses to train anything below twenty rows.
func TestEvaluate_InsufficientRows(t *testing.T) {
	features, target := blobs(19)
	prep := &Prepared{
		Features:    features,
		Target:      target,
		ProblemType: ProblemClassification,
	}

	results, err := Evaluate(prep, DefaultTestFraction)
	assert.Nil(t, results)

	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 19, insufficient.Rows)
	assert.Equal(t, MinEvaluateRows, insufficient.Minimum)
}

// TestEvaluate_ClassificationBattery scores the four classifiers plus the
// clustering pass on separable data.
func TestEvaluate_ClassificationBattery(t *testing.T) {
	features, target := blobs(60)
	prep := &Prepared{
		Features:    features,
		Target:      target,
		ProblemType: ProblemClassification,
	}

	results, err := Evaluate(prep, DefaultTestFraction)
	require.NoError(t, err)
	require.Len(t, results, 5)

	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Model
	}
	assert.Equal(t, []string{"Logistic Regression", "Random Forest", "Decision Tree", "SVM", "K-Means"}, names)

	for _, r := range results[:4] {
		assert.Equal(t, StatusSuccess, r.Status, r.Model)
		assert.Equal(t, MetricAccuracy, r.Metric, r.Model)
		score, ok := r.ScoreValue()
		require.True(t, ok, r.Model)
		assert.GreaterOrEqual(t, score, 0.8, r.Model)
		assert.Nil(t, r.MSE, r.Model)
		assert.Nil(t, r.MAE, r.Model)
	}

	kmeans := results[4]
	assert.Equal(t, StatusSuccess, kmeans.Status)
	assert.Equal(t, MetricSilhouette, kmeans.Metric)
	score, ok := kmeans.ScoreValue()
	require.True(t, ok)
	assert.Greater(t, score, 0.5)
}

// TestEvaluate_RegressionBattery scores the four regressors with MSE and MAE
// attached.
func TestEvaluate_RegressionBattery(t *testing.T) {
	features, target := line(60, 2, 1)
	prep := &Prepared{
		Features:    features,
		Target:      target,
		ProblemType: ProblemRegression,
	}

	results, err := Evaluate(prep, DefaultTestFraction)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(results), 4)

	byName := make(map[string]ModelResult, len(results))
	for _, r := range results {
		byName[r.Model] = r
	}

	linear := byName["Linear Regression"]
	require.Equal(t, StatusSuccess, linear.Status)
	assert.Equal(t, MetricR2, linear.Metric)
	score, ok := linear.ScoreValue()
	require.True(t, ok)
	assert.InDelta(t, 1, score, 1e-9)
	require.NotNil(t, linear.MSE)
	require.NotNil(t, linear.MAE)
	assert.InDelta(t, 0, *linear.MSE, 1e-6)

	for _, name := range []string{"Random Forest", "Decision Tree", "SVM"} {
		r, found := byName[name]
		require.True(t, found, name)
		assert.Equal(t, StatusSuccess, r.Status, name)
		assert.Equal(t, MetricR2, r.Metric, name)
		s, ok := r.ScoreValue()
		require.True(t, ok, name)
		assert.Greater(t, s, 0.5, name)
		assert.NotNil(t, r.MSE, name)
		assert.NotNil(t, r.MAE, name)
	}
}

// TestEvaluate_Deterministic returns identical results across runs.
func TestEvaluate_Deterministic(t *testing.T) {
	features, target := blobs(60)
	prep := &Prepared{
		Features:    features,
		Target:      target,
		ProblemType: ProblemClassification,
	}

	first, err := Evaluate(prep, DefaultTestFraction)
	require.NoError(t, err)
	second, err := Evaluate(prep, DefaultTestFraction)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestErrorResult_TruncatesMessage caps failure messages at 100 characters.
func TestErrorResult_TruncatesMessage(t *testing.T) {
	long := make([]byte, 150)
	for i := range long {
		long[i] = 'x'
	}
	r := errorResult("SVM", assert.AnError)
	assert.Equal(t, "SVM", r.Model)
	assert.Equal(t, StatusError, r.Status)
	assert.Equal(t, "Error", r.Score)

	r = errorResult("SVM", errors.New(string(long)))
	assert.Len(t, r.Metric, 100)

	_, ok := r.ScoreValue()
	assert.False(t, ok)
}
