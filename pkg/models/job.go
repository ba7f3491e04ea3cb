package models

import (
	"time"

	"github.com/tableprep/tableprep-go/pkg/compare"
	"github.com/tableprep/tableprep-go/pkg/report"
	"github.com/tableprep/tableprep-go/pkg/transform"
)

// JobType represents the type of job to be executed
type JobType string

const (
	JobTypePreprocess JobType = "preprocess"
)

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusScheduled JobStatus = "scheduled"
	JobStatusSpawned   JobStatus = "spawned"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// PreprocessSpec contains the preparation parameters for a job
type PreprocessSpec struct {
	DatasetID    string           `json:"dataset_id"`
	Steps        []transform.Step `json:"steps"`
	TargetColumn string           `json:"target_column,omitempty"`
	Compare      bool             `json:"compare"`
}

// PreprocessResult represents the outcome of a completed job.
// ComparisonError explains a missing Comparison when one was requested:
// a comparison that cannot run (for example too few rows to train on)
// does not fail the job, because the processed output is still valid.
type PreprocessResult struct {
	OutputPath      string              `json:"output_path"`
	Report          *report.Report      `json:"report,omitempty"`
	Comparison      *compare.Comparison `json:"comparison,omitempty"`
	ComparisonError string              `json:"comparison_error,omitempty"`
}

// Job represents a preparation work unit to be executed by a worker
type Job struct {
	ID                string            `json:"job_id"`
	Type              JobType           `json:"type"`
	Status            JobStatus         `json:"status"`
	Priority          int               `json:"priority"`
	Progress          int               `json:"progress"`
	Spec              PreprocessSpec    `json:"spec"`
	SubmittedAt       time.Time         `json:"submitted_at"`
	StartedAt         *time.Time        `json:"started_at,omitempty"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	ErrorMessage      string            `json:"error_message,omitempty"`
	KubernetesJobName string            `json:"kubernetes_job_name,omitempty"`
	Result            *PreprocessResult `json:"result,omitempty"`
}

// Terminal reports whether the job has reached a final status.
func (j *Job) Terminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// MarkRunning transitions the job into the running state.
func (j *Job) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

// MarkCompleted records the result and transitions the job to completed
// with full progress.
func (j *Job) MarkCompleted(result *PreprocessResult) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.Result = result
	j.CompletedAt = &now
}

// MarkFailed records the error message and transitions the job to failed.
func (j *Job) MarkFailed(err error) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorMessage = err.Error()
	j.CompletedAt = &now
}

// PreprocessRequest represents a request to submit a new preparation job
type PreprocessRequest struct {
	Steps        []transform.Step `json:"steps"`
	TargetColumn string           `json:"target_column,omitempty"`
	Compare      bool             `json:"compare"`
	Priority     int              `json:"priority,omitempty"`
}
