package transform

// Step kinds recorded in the audit log.
const (
	StepChangeType        = "change_type"
	StepFillMissing       = "fill_missing"
	StepRemoveOutliers    = "remove_outliers"
	StepEncodeCategorical = "encode_categorical"
	StepDropColumn        = "drop_column"
	StepDropHighMissing   = "drop_high_missing"
	StepRemoveDuplicates  = "remove_duplicates"
)

// Step is one requested transformation, as submitted by callers. For
// change_type the Method field carries the target type; for fill_missing
// with the custom method the Value field carries the fill value.
type Step struct {
	Action string `json:"action" yaml:"action"`
	Column string `json:"column,omitempty" yaml:"column,omitempty"`
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
	Value  any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// KnownAction reports whether action names a step the engine can run,
// including the accepted aliases. Submission endpoints use this to
// reject bad step lists before queueing a job.
func KnownAction(action string) bool {
	switch action {
	case StepChangeType, "change_data_type",
		StepFillMissing,
		StepRemoveOutliers,
		StepEncodeCategorical, "encode",
		StepDropColumn:
		return true
	}
	return false
}

// StepRecord is one entry of the append-only audit log. Records are
// immutable once appended; Outcome carries step-specific counts, bounds
// and mappings.
type StepRecord struct {
	Kind    string         `json:"step"`
	Details string         `json:"details"`
	Column  string         `json:"column,omitempty"`
	Method  string         `json:"method,omitempty"`
	Outcome map[string]any `json:"outcome,omitempty"`
}
