// Package compare scores the same model battery against an original dataset
// and its transformed counterpart and pairs the results, quantifying whether
// the preparation steps helped.
package compare

import (
	"fmt"
	"math"

	"github.com/tableprep/tableprep-go/pkg/dataset"
	"github.com/tableprep/tableprep-go/pkg/harness"
)

// improvementNA marks a paired row whose delta cannot be computed.
const improvementNA = "N/A"

// Row pairs one model's score on both datasets. Improvement is the processed
// score minus the original score rounded to four decimals, or "N/A" when
// either side lacks a numeric score.
type Row struct {
	Model          string `json:"model"`
	OriginalScore  any    `json:"original"`
	ProcessedScore any    `json:"processed"`
	Improvement    any    `json:"improvement"`
	Metric         string `json:"metric"`
}

// Comparison is the full before/after evaluation. Rows only cover models
// that succeeded on both datasets; the per-side result lists carry
// everything, including failures.
type Comparison struct {
	TargetColumn     string                `json:"target_column"`
	ProblemType      string                `json:"problem_type"`
	OriginalShape    dataset.Shape         `json:"original_shape"`
	ProcessedShape   dataset.Shape         `json:"processed_shape"`
	OriginalResults  []harness.ModelResult `json:"original_results"`
	ProcessedResults []harness.ModelResult `json:"processed_results"`
	Rows             []Row                 `json:"comparison"`
}

// FailedError wraps any preparation or evaluation failure on either side of
// a comparison. No partial comparison is returned alongside it.
type FailedError struct {
	Side string // "original" or "processed"
	Err  error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("model comparison failed on the %s dataset: %v", e.Side, e.Err)
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// Compare resolves the target column once against the original dataset, then
// prepares and evaluates both datasets against that same column. Either side
// failing aborts the whole comparison with a FailedError.
func Compare(original, processed *dataset.Dataset, targetColumn string) (*Comparison, error) {
	origPrep, err := harness.PrepareData(original, targetColumn)
	if err != nil {
		return nil, &FailedError{Side: "original", Err: err}
	}
	origResults, err := harness.Evaluate(origPrep, harness.DefaultTestFraction)
	if err != nil {
		return nil, &FailedError{Side: "original", Err: err}
	}

	procPrep, err := harness.PrepareData(processed, origPrep.TargetColumn)
	if err != nil {
		return nil, &FailedError{Side: "processed", Err: err}
	}
	procResults, err := harness.Evaluate(procPrep, harness.DefaultTestFraction)
	if err != nil {
		return nil, &FailedError{Side: "processed", Err: err}
	}

	return &Comparison{
		TargetColumn:     origPrep.TargetColumn,
		ProblemType:      origPrep.ProblemType,
		OriginalShape:    original.Shape(),
		ProcessedShape:   processed.Shape(),
		OriginalResults:  origResults,
		ProcessedResults: procResults,
		Rows:             pairResults(origResults, procResults),
	}, nil
}

// pairResults walks the original results in battery order and emits a row
// for every model that also succeeded on the processed side.
func pairResults(original, processed []harness.ModelResult) []Row {
	bySide := make(map[string]harness.ModelResult, len(processed))
	for _, r := range processed {
		bySide[r.Model] = r
	}

	rows := make([]Row, 0, len(original))
	for _, orig := range original {
		if orig.Status != harness.StatusSuccess {
			continue
		}
		proc, found := bySide[orig.Model]
		if !found || proc.Status != harness.StatusSuccess {
			continue
		}
		row := Row{
			Model:          orig.Model,
			OriginalScore:  orig.Score,
			ProcessedScore: proc.Score,
			Improvement:    improvementNA,
			Metric:         orig.Metric,
		}
		if origScore, ok := orig.ScoreValue(); ok {
			if procScore, ok := proc.ScoreValue(); ok {
				row.Improvement = round4(procScore - origScore)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
