package analytics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tableprep/tableprep-go/pkg/models"
)

type stubStore struct {
	saved   []*models.Action
	saveErr error
}

func (s *stubStore) SaveAction(action *models.Action) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, action)
	return nil
}

func (s *stubStore) ListActions(limit int) ([]*models.Action, error) {
	if limit > 0 && limit < len(s.saved) {
		return s.saved[:limit], nil
	}
	return s.saved, nil
}

func (s *stubStore) UsageSummary() (*models.UsageSummary, error) {
	byKind := make(map[string]int)
	for _, a := range s.saved {
		byKind[a.Kind]++
	}
	return &models.UsageSummary{ActionsByKind: byKind}, nil
}

// TestRecorder_Record tests that actions are stored with generated IDs
// and timestamps
func TestRecorder_Record(t *testing.T) {
	store := &stubStore{}
	rec := NewRecorder(store)

	rec.Record(&models.Action{
		Kind:      models.ActionUpload,
		DatasetID: "ds-1",
		Rows:      100,
		Columns:   5,
		Detail:    "sales.csv",
	})

	require.Len(t, store.saved, 1)
	action := store.saved[0]
	assert.NotEmpty(t, action.ID)
	assert.Equal(t, models.ActionUpload, action.Kind)
	assert.Equal(t, "ds-1", action.DatasetID)
	assert.Equal(t, 100, action.Rows)
	assert.Equal(t, 5, action.Columns)
	assert.Equal(t, "sales.csv", action.Detail)
	assert.False(t, action.CreatedAt.IsZero())
}

// TestRecorder_RecordKeepsCallerFields tests that a caller-assigned ID is
// not overwritten
func TestRecorder_RecordKeepsCallerFields(t *testing.T) {
	store := &stubStore{}
	rec := NewRecorder(store)

	rec.Record(&models.Action{ID: "fixed-id", Kind: models.ActionExport})

	require.Len(t, store.saved, 1)
	assert.Equal(t, "fixed-id", store.saved[0].ID)
}

// TestRecorder_RecordSwallowsErrors tests that a failing store does not
// propagate out of Record
func TestRecorder_RecordSwallowsErrors(t *testing.T) {
	store := &stubStore{saveErr: errors.New("disk full")}
	rec := NewRecorder(store)

	assert.NotPanics(t, func() {
		rec.Record(&models.Action{Kind: models.ActionProfile, DatasetID: "ds-1"})
	})
	assert.Empty(t, store.saved)
}

// TestRecorder_Reads tests the passthrough read methods
func TestRecorder_Reads(t *testing.T) {
	store := &stubStore{}
	rec := NewRecorder(store)

	rec.Record(&models.Action{Kind: models.ActionUpload, DatasetID: "ds-1"})
	rec.Record(&models.Action{Kind: models.ActionPreprocess, DatasetID: "ds-1", JobID: "job-1", StepCount: 3})

	recent, err := rec.Recent(1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	summary, err := rec.Usage()
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ActionsByKind[models.ActionUpload])
	assert.Equal(t, 1, summary.ActionsByKind[models.ActionPreprocess])
}
