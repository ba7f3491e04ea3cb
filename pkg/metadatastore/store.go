package metadatastore

import (
	"time"

	"github.com/tableprep/tableprep-go/pkg/models"
)

// MetadataStore is the interface for service metadata persistence.
// This stores dataset records, preparation jobs and the usage action log.
// Raw dataset files live on disk under the configured data directories.
type MetadataStore interface {
	// Dataset operations
	SaveDataset(meta *models.DatasetMeta) error
	GetDataset(id string) (*models.DatasetMeta, error)
	ListDatasets() ([]*models.DatasetMeta, error)
	ListDatasetsOlderThan(cutoff time.Time) ([]*models.DatasetMeta, error)
	DeleteDataset(id string) error

	// Job operations
	SaveJob(job *models.Job) error
	GetJob(id string) (*models.Job, error)
	ListJobs() ([]*models.Job, error)
	ListJobsByDataset(datasetID string) ([]*models.Job, error)
	UpdateJobStatus(id string, status models.JobStatus, errorMessage string) error
	UpdateJobProgress(id string, progress int) error
	DeleteJob(id string) error
	DeleteJobsOlderThan(cutoff time.Time) (int, error)

	// Action log operations
	SaveAction(action *models.Action) error
	ListActions(limit int) ([]*models.Action, error)
	DeleteActionsOlderThan(cutoff time.Time) (int, error)

	// UsageSummary aggregates stored counts for the analytics endpoints
	UsageSummary() (*models.UsageSummary, error)

	Close() error
}
