package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/tableprep/tableprep-go/pkg/models"
	"github.com/tableprep/tableprep-go/utils"
)

// ActionStore is the slice of the metadata store the recorder needs.
type ActionStore interface {
	SaveAction(action *models.Action) error
	ListActions(limit int) ([]*models.Action, error)
	UsageSummary() (*models.UsageSummary, error)
}

// Recorder writes usage actions to the metadata store. Recording is best
// effort: a failed write is logged and dropped so it can never fail the
// operation being recorded.
type Recorder struct {
	store ActionStore
}

// NewRecorder creates a new usage recorder
func NewRecorder(store ActionStore) *Recorder {
	return &Recorder{store: store}
}

// Record stores one usage action, assigning an ID and timestamp when the
// caller left them empty.
func (r *Recorder) Record(action *models.Action) {
	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}

	if err := r.store.SaveAction(action); err != nil {
		utils.GetLogger().Warn("Failed to record usage action",
			utils.Component("analytics"),
			utils.String("kind", action.Kind),
			utils.String("dataset_id", action.DatasetID))
	}
}

// Recent returns the most recent actions, newest first
func (r *Recorder) Recent(limit int) ([]*models.Action, error) {
	return r.store.ListActions(limit)
}

// Usage returns aggregate activity counts
func (r *Recorder) Usage() (*models.UsageSummary, error) {
	return r.store.UsageSummary()
}
