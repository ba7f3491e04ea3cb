package harness

import (
	"sort"

	"github.com/tableprep/tableprep-go/pkg/dataset"
)

// Problem types inferred from the resolved target column.
const (
	ProblemClassification = "classification"
	ProblemRegression     = "regression"
)

const (
	// MinPrepareRows is the smallest usable row count after missing-value
	// rows are dropped.
	MinPrepareRows = 10

	// Target auto-resolution picks the first column whose distinct-value
	// count falls inside [minTargetDistinct, maxTargetDistinct].
	minTargetDistinct = 2
	maxTargetDistinct = 20

	// Targets with fewer distinct values than this are treated as class
	// labels even when they are numeric.
	classDistinctCutoff = 10
)

// Prepared is a dataset lowered into numeric matrices ready for model
// training. Features hold one row per dataset row and one entry per feature
// column, in column order. Target holds the numeric (or label-encoded)
// target value per row.
type Prepared struct {
	Features     [][]float64
	FeatureNames []string
	Target       []float64
	ProblemType  string
	TargetColumn string

	// TargetLabels maps stringified target values to their encoded codes
	// for classification problems; nil for regression.
	TargetLabels map[string]int
}

// PrepareData resolves the target column, infers the problem type and lowers
// the dataset into numeric feature/target matrices. Rows containing any
// missing value are dropped first; fewer than MinPrepareRows survivors fail
// with InsufficientDataError. Text and categorical feature columns are
// label-encoded with codes assigned in sorted order, boolean columns become
// 0/1 and temporal columns become epoch seconds. The input dataset is never
// mutated.
func PrepareData(ds *dataset.Dataset, targetColumn string) (*Prepared, error) {
	if ds.Cols() == 0 {
		return nil, &InsufficientDataError{Rows: 0, Minimum: MinPrepareRows}
	}

	resolved := resolveTarget(ds, targetColumn)
	problem := problemType(mustColumn(ds, resolved))

	work := ds.Copy()
	keep := make([]bool, work.Rows())
	for i := range keep {
		keep[i] = !work.RowHasMissing(i)
	}
	work.KeepRows(keep)
	if work.Rows() < MinPrepareRows {
		return nil, &InsufficientDataError{Rows: work.Rows(), Minimum: MinPrepareRows}
	}

	prep := &Prepared{
		ProblemType:  problem,
		TargetColumn: resolved,
	}

	rows := work.Rows()
	prep.Features = make([][]float64, rows)
	for i := range prep.Features {
		prep.Features[i] = make([]float64, 0, work.Cols()-1)
	}
	for _, col := range work.Columns {
		if col.Name == resolved {
			continue
		}
		prep.FeatureNames = append(prep.FeatureNames, col.Name)
		appendFeature(prep.Features, col)
	}
	fillColumnMeans(prep.Features)

	target := mustColumn(work, resolved)
	if problem == ProblemClassification {
		prep.Target, prep.TargetLabels = encodeLabels(target.Cells)
	} else {
		prep.Target = make([]float64, rows)
		for i, cell := range target.Cells {
			prep.Target[i] = cellFloat(cell)
		}
	}
	return prep, nil
}

// resolveTarget returns the requested column when it exists; otherwise the
// first column with a distinct-value count in [2, 20], falling back to the
// last column.
func resolveTarget(ds *dataset.Dataset, requested string) string {
	if requested != "" && ds.HasColumn(requested) {
		return requested
	}
	for _, col := range ds.Columns {
		n := col.DistinctCount()
		if n >= minTargetDistinct && n <= maxTargetDistinct {
			return col.Name
		}
	}
	return ds.Columns[len(ds.Columns)-1].Name
}

func problemType(target *dataset.Column) string {
	switch target.Class() {
	case dataset.ClassText, dataset.ClassCategorical:
		return ProblemClassification
	}
	if target.DistinctCount() < classDistinctCutoff {
		return ProblemClassification
	}
	return ProblemRegression
}

// appendFeature lowers one column into the feature matrix. Label-encoded
// columns get one code per distinct stringified value, assigned in sorted
// order so repeated runs produce identical matrices.
func appendFeature(features [][]float64, col *dataset.Column) {
	switch col.Class() {
	case dataset.ClassText, dataset.ClassCategorical:
		codes, _ := encodeLabels(col.Cells)
		for i := range features {
			features[i] = append(features[i], codes[i])
		}
	default:
		for i, cell := range col.Cells {
			features[i] = append(features[i], cellFloat(cell))
		}
	}
}

func cellFloat(v dataset.Value) float64 {
	if f, ok := v.Float(); ok {
		return f
	}
	switch v.Kind {
	case dataset.KindBool:
		if v.Bool {
			return 1
		}
		return 0
	case dataset.KindTime:
		return float64(v.Time.Unix())
	}
	return 0
}

func encodeLabels(cells []dataset.Value) ([]float64, map[string]int) {
	distinct := make(map[string]struct{}, len(cells))
	for _, cell := range cells {
		distinct[cell.String()] = struct{}{}
	}
	labels := make([]string, 0, len(distinct))
	for label := range distinct {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	mapping := make(map[string]int, len(labels))
	for code, label := range labels {
		mapping[label] = code
	}
	codes := make([]float64, len(cells))
	for i, cell := range cells {
		codes[i] = float64(mapping[cell.String()])
	}
	return codes, mapping
}

// fillColumnMeans replaces any non-finite feature entry with its column mean,
// or zero when the whole column is non-finite. Rows with missing cells are
// dropped before lowering, so this only guards stray NaNs.
func fillColumnMeans(features [][]float64) {
	if len(features) == 0 {
		return
	}
	cols := len(features[0])
	for j := 0; j < cols; j++ {
		sum, n := 0.0, 0
		for i := range features {
			if isFinite(features[i][j]) {
				sum += features[i][j]
				n++
			}
		}
		mean := 0.0
		if n > 0 {
			mean = sum / float64(n)
		}
		for i := range features {
			if !isFinite(features[i][j]) {
				features[i][j] = mean
			}
		}
	}
}

func mustColumn(ds *dataset.Dataset, name string) *dataset.Column {
	col, err := ds.Column(name)
	if err != nil {
		panic(err)
	}
	return col
}
