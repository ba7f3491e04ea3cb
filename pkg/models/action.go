package models

import "time"

// Action kinds recorded for usage analytics.
const (
	ActionUpload     = "upload"
	ActionProfile    = "profile"
	ActionPreprocess = "preprocess"
	ActionCompare    = "compare"
	ActionExport     = "export"
	ActionDelete     = "delete"
)

// Action records one user-visible operation for usage analytics.
// Shape and timing fields describe the dataset the action touched and are
// zero when they do not apply.
type Action struct {
	ID        string    `json:"action_id"`
	Kind      string    `json:"kind"`
	DatasetID string    `json:"dataset_id,omitempty"`
	JobID     string    `json:"job_id,omitempty"`
	Rows      int       `json:"rows,omitempty"`
	Columns   int       `json:"columns,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms,omitempty"`
	StepCount int       `json:"step_count,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UsageSummary aggregates stored activity counts for the analytics endpoints
type UsageSummary struct {
	Datasets      int            `json:"datasets"`
	JobsByStatus  map[string]int `json:"jobs_by_status"`
	ActionsByKind map[string]int `json:"actions_by_kind"`
}
