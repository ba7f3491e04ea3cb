// Package pipeline runs preprocessing jobs end to end: load the dataset,
// profile it, apply the requested transform steps, write the processed
// output and report, and optionally compare model scores before and after.
// The same Service backs the in-process worker pool and the distributed
// workers.
package pipeline

import (
	"fmt"
	"time"

	"github.com/tableprep/tableprep-go/pkg/analytics"
	"github.com/tableprep/tableprep-go/pkg/compare"
	"github.com/tableprep/tableprep-go/pkg/dataset"
	"github.com/tableprep/tableprep-go/pkg/metadatastore"
	"github.com/tableprep/tableprep-go/pkg/models"
	"github.com/tableprep/tableprep-go/pkg/profile"
	"github.com/tableprep/tableprep-go/pkg/report"
	"github.com/tableprep/tableprep-go/pkg/storage"
	"github.com/tableprep/tableprep-go/pkg/transform"
	"github.com/tableprep/tableprep-go/utils"
)

// Service executes preprocessing jobs against stored datasets
type Service struct {
	store    metadatastore.MetadataStore
	files    *storage.FileStore
	recorder *analytics.Recorder

	// EncodeDistinctLimit overrides the engine default when > 0.
	EncodeDistinctLimit int
}

// NewService creates a new preprocessing service
func NewService(store metadatastore.MetadataStore, files *storage.FileStore, recorder *analytics.Recorder) *Service {
	return &Service{
		store:    store,
		files:    files,
		recorder: recorder,
	}
}

// Run executes one job to a terminal status. The outcome is persisted on
// the job record; the returned error mirrors a failed status so callers
// can log it.
func (s *Service) Run(job *models.Job) error {
	logger := utils.GetLogger()
	start := time.Now()

	job.MarkRunning()
	if err := s.store.SaveJob(job); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	logger.Info("Starting preprocessing job",
		utils.Component("pipeline"),
		utils.String("job_id", job.ID),
		utils.String("dataset_id", job.Spec.DatasetID),
		utils.Int("steps", len(job.Spec.Steps)))

	result, err := s.execute(job)
	if err != nil {
		job.MarkFailed(err)
		if saveErr := s.store.SaveJob(job); saveErr != nil {
			logger.Error("Failed to persist job failure", saveErr,
				utils.Component("pipeline"),
				utils.String("job_id", job.ID))
		}
		logger.Error("Preprocessing job failed", err,
			utils.Component("pipeline"),
			utils.String("job_id", job.ID))
		return err
	}

	job.MarkCompleted(result)
	if err := s.store.SaveJob(job); err != nil {
		return fmt.Errorf("failed to persist job result: %w", err)
	}

	elapsed := time.Since(start)
	s.recorder.Record(&models.Action{
		Kind:      models.ActionPreprocess,
		DatasetID: job.Spec.DatasetID,
		JobID:     job.ID,
		Rows:      result.Report.FinalShape.Rows,
		Columns:   result.Report.FinalShape.Columns,
		ElapsedMS: elapsed.Milliseconds(),
		StepCount: len(result.Report.Steps),
	})

	logger.Info("Preprocessing job completed",
		utils.Component("pipeline"),
		utils.String("job_id", job.ID),
		utils.Int("rows", result.Report.FinalShape.Rows),
		utils.Int("columns", result.Report.FinalShape.Columns),
		utils.Float("elapsed_seconds", elapsed.Seconds()))

	return nil
}

// execute runs the pipeline stages and persists the processed output.
// Progress milestones: 10 after load, 30 after profile, 50 through 90
// across transform steps, 100 when the job record is marked completed.
func (s *Service) execute(job *models.Job) (*models.PreprocessResult, error) {
	logger := utils.GetLogger()

	meta, err := s.store.GetDataset(job.Spec.DatasetID)
	if err != nil {
		return nil, err
	}

	ds, err := dataset.Load(meta.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	ds.Name = meta.Name
	s.progress(job, 10)

	diagnostics := profile.Describe(ds)
	logger.Debug("Profiled dataset",
		utils.Component("pipeline"),
		utils.String("job_id", job.ID),
		utils.Int("columns", len(diagnostics)))
	s.progress(job, 30)

	engine := transform.NewEngine(ds)
	if s.EncodeDistinctLimit > 0 {
		engine.EncodeDistinctLimit = s.EncodeDistinctLimit
	}
	s.progress(job, 50)

	steps := job.Spec.Steps
	for i, step := range steps {
		if err := engine.ApplyStep(step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		s.progress(job, 50+((i+1)*40)/len(steps))
	}
	engine.Cleanup()
	s.progress(job, 90)

	final := engine.Dataset()
	rep := report.Build(engine.Original(), final, engine.Log())

	outputPath := s.files.OutputPath(meta.ID)
	if err := dataset.SaveCSV(final, outputPath); err != nil {
		return nil, fmt.Errorf("failed to write processed dataset: %w", err)
	}

	meta.ProcessedPath = outputPath
	meta.ProcessedRows = final.Rows()
	meta.ProcessedColumns = final.Cols()
	if err := s.store.SaveDataset(meta); err != nil {
		return nil, fmt.Errorf("failed to update dataset metadata: %w", err)
	}

	result := &models.PreprocessResult{
		OutputPath: outputPath,
		Report:     rep,
	}

	if job.Spec.Compare {
		comparison, err := compare.Compare(engine.Original(), final, job.Spec.TargetColumn)
		if err != nil {
			// The processed output is already written; keep the job
			// successful and surface why the comparison is missing.
			result.ComparisonError = err.Error()
			logger.Warn("Model comparison skipped",
				utils.Component("pipeline"),
				utils.String("job_id", job.ID),
				utils.String("reason", err.Error()))
		} else {
			result.Comparison = comparison
		}
	}

	return result, nil
}

// progress persists a milestone. Progress writes are best effort; a
// failed write never aborts the run.
func (s *Service) progress(job *models.Job, pct int) {
	job.Progress = pct
	if err := s.store.UpdateJobProgress(job.ID, pct); err != nil {
		utils.GetLogger().Warn("Failed to update job progress",
			utils.Component("pipeline"),
			utils.String("job_id", job.ID),
			utils.Int("progress", pct))
	}
}
