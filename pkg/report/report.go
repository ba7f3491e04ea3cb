// Package report aggregates the outcome of a preparation run into a single
// structured record built from the original dataset, the final dataset and
// the step log.
package report

import (
	"time"

	"github.com/tableprep/tableprep-go/pkg/dataset"
	"github.com/tableprep/tableprep-go/pkg/transform"
)

// Report summarizes one preparation run. ColumnsDropped is the net column
// delta and may be negative when encoding added more columns than were
// dropped. DuplicatesRemoved is the net row delta; when row-reducing steps
// other than deduplication ran it overstates the true duplicate count.
type Report struct {
	DatasetName       string                 `json:"dataset_name,omitempty"`
	OriginalShape     dataset.Shape          `json:"original_shape"`
	FinalShape        dataset.Shape          `json:"final_shape"`
	Steps             []transform.StepRecord `json:"steps_applied"`
	ColumnsDropped    int                    `json:"columns_dropped"`
	DuplicatesRemoved int                    `json:"duplicates_removed"`
	MissingBefore     map[string]int         `json:"missing_before"`
	MissingAfter      map[string]int         `json:"missing_after"`
	Dtypes            map[string]string      `json:"dtypes"`
	GeneratedAt       time.Time              `json:"generated_at"`
}

// Build assembles the report. It recomputes nothing from the step log and
// never mutates its inputs.
func Build(original, final *dataset.Dataset, steps []transform.StepRecord) *Report {
	if steps == nil {
		steps = []transform.StepRecord{}
	}
	dtypes := make(map[string]string, final.Cols())
	for name, class := range final.Classes() {
		dtypes[name] = string(class)
	}
	return &Report{
		DatasetName:       original.Name,
		OriginalShape:     original.Shape(),
		FinalShape:        final.Shape(),
		Steps:             steps,
		ColumnsDropped:    original.Cols() - final.Cols(),
		DuplicatesRemoved: original.Rows() - final.Rows(),
		MissingBefore:     original.MissingByColumn(),
		MissingAfter:      final.MissingByColumn(),
		Dtypes:            dtypes,
		GeneratedAt:       time.Now().UTC(),
	}
}
