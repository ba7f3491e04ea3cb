// Package scheduler runs the retention sweep: datasets older than the
// retention window are deleted together with their files, jobs and
// action records.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tableprep/tableprep-go/pkg/metadatastore"
	"github.com/tableprep/tableprep-go/pkg/storage"
	"github.com/tableprep/tableprep-go/utils"
)

// Sweeper deletes expired datasets on a cron schedule
type Sweeper struct {
	store         metadatastore.MetadataStore
	files         *storage.FileStore
	cron          *cron.Cron
	schedule      string
	retentionDays int
}

// NewSweeper creates a new retention sweeper
func NewSweeper(store metadatastore.MetadataStore, files *storage.FileStore, schedule string, retentionDays int) *Sweeper {
	return &Sweeper{
		store:         store,
		files:         files,
		cron:          cron.New(),
		schedule:      schedule,
		retentionDays: retentionDays,
	}
}

// Start validates the schedule and begins periodic sweeping
func (s *Sweeper) Start() error {
	schedule, err := cron.ParseStandard(s.schedule)
	if err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.schedule, err)
	}

	s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.Sweep()
	}))
	s.cron.Start()

	utils.GetLogger().Info("Retention sweeper started",
		utils.Component("scheduler"),
		utils.String("schedule", s.schedule),
		utils.Int("retention_days", s.retentionDays))

	return nil
}

// Stop halts the schedule; a sweep already running finishes on its own
func (s *Sweeper) Stop() {
	s.cron.Stop()
	utils.GetLogger().Info("Retention sweeper stopped",
		utils.Component("scheduler"))
}

// Sweep removes everything older than the retention window and returns
// the number of datasets, jobs and actions deleted.
func (s *Sweeper) Sweep() (datasets, jobs, actions int) {
	logger := utils.GetLogger()
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)

	stale, err := s.store.ListDatasetsOlderThan(cutoff)
	if err != nil {
		logger.Error("Retention sweep failed to list datasets", err,
			utils.Component("scheduler"))
		return 0, 0, 0
	}

	for _, meta := range stale {
		if err := s.files.Remove(meta.Path); err != nil {
			logger.Warn("Failed to remove dataset file",
				utils.Component("scheduler"),
				utils.String("dataset_id", meta.ID),
				utils.String("path", meta.Path))
		}
		if err := s.files.Remove(meta.ProcessedPath); err != nil {
			logger.Warn("Failed to remove processed file",
				utils.Component("scheduler"),
				utils.String("dataset_id", meta.ID),
				utils.String("path", meta.ProcessedPath))
		}

		// Jobs for a deleted dataset go regardless of their own age
		datasetJobs, err := s.store.ListJobsByDataset(meta.ID)
		if err == nil {
			for _, job := range datasetJobs {
				if err := s.store.DeleteJob(job.ID); err == nil {
					jobs++
				}
			}
		}

		if err := s.store.DeleteDataset(meta.ID); err != nil {
			logger.Error("Failed to delete dataset metadata", err,
				utils.Component("scheduler"),
				utils.String("dataset_id", meta.ID))
			continue
		}
		datasets++
	}

	// Terminal jobs and actions age out on their own even when their
	// dataset is still retained
	staleJobs, err := s.store.DeleteJobsOlderThan(cutoff)
	if err != nil {
		logger.Error("Retention sweep failed to delete jobs", err,
			utils.Component("scheduler"))
	}
	jobs += staleJobs

	actions, err = s.store.DeleteActionsOlderThan(cutoff)
	if err != nil {
		logger.Error("Retention sweep failed to delete actions", err,
			utils.Component("scheduler"))
	}

	logger.Info("Retention sweep completed",
		utils.Component("scheduler"),
		utils.Int("datasets_removed", datasets),
		utils.Int("jobs_removed", jobs),
		utils.Int("actions_removed", actions))

	return datasets, jobs, actions
}
