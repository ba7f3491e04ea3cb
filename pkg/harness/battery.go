// Package harness lowers datasets into numeric matrices and scores a fixed
// battery of models on them, so the same dataset prepared twice always
// produces the same numbers. Classification runs logistic regression, a
// random forest, a decision tree and a linear SVM scored by accuracy;
// regression runs their regressor counterparts scored by R² with MSE and
// MAE alongside. A k-means pass over the full feature set contributes a
// silhouette score when it finds more than one cluster.
package harness

import "errors"

const (
	// MinEvaluateRows is the smallest row count Evaluate accepts.
	MinEvaluateRows = 20

	// DefaultTestFraction is the held-out share of rows used for scoring.
	DefaultTestFraction = 0.2

	forestTrees = 100
)

// ModelResult statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metric names reported on successful results.
const (
	MetricAccuracy   = "Accuracy"
	MetricR2         = "R² Score"
	MetricSilhouette = "Silhouette Score"
)

// ModelResult is one model's scoring outcome. Score is a float64 rounded to
// four decimals on success and the string "Error" on failure, in which case
// Metric carries the failure message truncated to 100 characters.
type ModelResult struct {
	Model  string   `json:"model"`
	Status string   `json:"status"`
	Score  any      `json:"score"`
	Metric string   `json:"metric"`
	MSE    *float64 `json:"mse,omitempty"`
	MAE    *float64 `json:"mae,omitempty"`
}

// ScoreValue returns the numeric score and whether the result carries one.
func (r ModelResult) ScoreValue() (float64, bool) {
	v, ok := r.Score.(float64)
	return v, ok && r.Status == StatusSuccess
}

type predictor interface {
	fit(features [][]float64, target []float64) error
	predict(features [][]float64) []float64
}

type batteryEntry struct {
	name  string
	model predictor
}

func battery(problemType string) []batteryEntry {
	if problemType == ProblemClassification {
		return []batteryEntry{
			{"Logistic Regression", newLogisticRegression()},
			{"Random Forest", newRandomForest(true, forestTrees)},
			{"Decision Tree", newDecisionTree(true)},
			{"SVM", newLinearSVC()},
		}
	}
	return []batteryEntry{
		{"Linear Regression", &linearRegression{}},
		{"Random Forest", newRandomForest(false, forestTrees)},
		{"Decision Tree", newDecisionTree(false)},
		{"SVM", newLinearSVR()},
	}
}

// Evaluate splits the prepared data deterministically, trains the battery
// for the problem type and scores each model on the held-out partition. A
// single model's failure becomes an error ModelResult and never aborts the
// rest of the battery. Fewer than MinEvaluateRows rows fail with
// InsufficientDataError before any model trains.
func Evaluate(prep *Prepared, testFraction float64) ([]ModelResult, error) {
	n := len(prep.Features)
	if n < MinEvaluateRows {
		return nil, &InsufficientDataError{Rows: n, Minimum: MinEvaluateRows}
	}
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = DefaultTestFraction
	}

	trainIdx, testIdx := splitIndices(n, testFraction, splitSeed)
	trainX := gatherRows(prep.Features, trainIdx)
	testX := gatherRows(prep.Features, testIdx)
	trainY := gatherValues(prep.Target, trainIdx)
	testY := gatherValues(prep.Target, testIdx)

	// Classification features are standardized with statistics from the
	// training partition only.
	if prep.ProblemType == ProblemClassification {
		scaler := fitScaler(trainX)
		trainX = scaler.transform(trainX)
		testX = scaler.transform(testX)
	}

	results := make([]ModelResult, 0, 5)
	for _, entry := range battery(prep.ProblemType) {
		results = append(results, trainAndScore(entry, trainX, trainY, testX, testY, prep.ProblemType))
	}
	if r, ok := clusteringResult(prep); ok {
		results = append(results, r)
	}
	return results, nil
}

func trainAndScore(entry batteryEntry, trainX [][]float64, trainY []float64, testX [][]float64, testY []float64, problemType string) ModelResult {
	if err := entry.model.fit(trainX, trainY); err != nil {
		return errorResult(entry.name, err)
	}
	predicted := entry.model.predict(testX)
	if len(predicted) != len(testY) {
		return errorResult(entry.name, errors.New("prediction count does not match test rows"))
	}

	if problemType == ProblemClassification {
		score := accuracyScore(testY, predicted)
		if !isFinite(score) {
			return errorResult(entry.name, errors.New("model produced a non-finite score"))
		}
		return ModelResult{Model: entry.name, Status: StatusSuccess, Score: round4(score), Metric: MetricAccuracy}
	}

	score := r2Score(testY, predicted)
	if !isFinite(score) {
		return errorResult(entry.name, errors.New("model produced a non-finite score"))
	}
	mse := round4(meanSquaredError(testY, predicted))
	mae := round4(meanAbsoluteError(testY, predicted))
	return ModelResult{
		Model:  entry.name,
		Status: StatusSuccess,
		Score:  round4(score),
		Metric: MetricR2,
		MSE:    &mse,
		MAE:    &mae,
	}
}

func errorResult(name string, err error) ModelResult {
	msg := err.Error()
	if len(msg) > 100 {
		msg = msg[:100]
	}
	return ModelResult{Model: name, Status: StatusError, Score: "Error", Metric: msg}
}

// clusteringResult runs k-means over the full feature set with k capped at
// the distinct target count (at most 10) and reports a silhouette score when
// more than one cluster emerges. Any failure is swallowed.
func clusteringResult(prep *Prepared) (ModelResult, bool) {
	features := prep.Features
	if prep.ProblemType == ProblemClassification {
		features = fitScaler(features).transform(features)
	}

	k := len(sortedDistinct(prep.Target))
	if k > 10 {
		k = 10
	}
	labels, err := newKMeans(k).fitPredict(features)
	if err != nil {
		return ModelResult{}, false
	}
	distinct := make(map[int]struct{}, k)
	for _, l := range labels {
		distinct[l] = struct{}{}
	}
	if len(distinct) < 2 {
		return ModelResult{}, false
	}
	score, err := silhouetteScore(features, labels)
	if err != nil || !isFinite(score) {
		return ModelResult{}, false
	}
	return ModelResult{Model: "K-Means", Status: StatusSuccess, Score: round4(score), Metric: MetricSilhouette}, true
}
