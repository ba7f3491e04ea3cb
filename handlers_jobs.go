package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tableprep/tableprep-go/pkg/compare"
	"github.com/tableprep/tableprep-go/pkg/dataset"
	"github.com/tableprep/tableprep-go/pkg/models"
	"github.com/tableprep/tableprep-go/pkg/report"
	"github.com/tableprep/tableprep-go/pkg/transform"
	"github.com/tableprep/tableprep-go/utils"
)

// handleSubmitPreprocess validates a preparation request and queues it as
// a job. The response is the queued job record; progress and the result
// are read back from the jobs endpoints.
func (s *Server) handleSubmitPreprocess(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	meta, err := s.store.GetDataset(vars["id"])
	if err != nil {
		writeNotFoundResponse(w, err.Error())
		return
	}

	var req models.PreprocessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestResponse(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	// Catch unknown actions here instead of failing the job later
	for i, step := range req.Steps {
		if !transform.KnownAction(step.Action) {
			writeBadRequestResponse(w, fmt.Sprintf("Step %d has unknown action %q", i+1, step.Action))
			return
		}
	}

	job := &models.Job{
		ID:       uuid.New().String(),
		Type:     models.JobTypePreprocess,
		Status:   models.JobStatusQueued,
		Priority: req.Priority,
		Spec: models.PreprocessSpec{
			DatasetID:    meta.ID,
			Steps:        req.Steps,
			TargetColumn: req.TargetColumn,
			Compare:      req.Compare,
		},
		SubmittedAt: time.Now().UTC(),
	}

	if err := s.store.SaveJob(job); err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to save job: %v", err))
		return
	}

	// Enqueue a copy: the in-process pool mutates its job as it runs,
	// while the response below serializes the record as queued.
	queued := *job
	if err := s.jobs.Enqueue(&queued); err != nil {
		s.store.UpdateJobStatus(job.ID, models.JobStatusFailed, "failed to enqueue: "+err.Error())
		writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to enqueue job: %v", err))
		return
	}

	utils.GetLogger().Info("Preparation job queued",
		utils.String("job_id", job.ID),
		utils.String("dataset_id", meta.ID),
		utils.Int("steps", len(req.Steps)),
		utils.Component("api"))

	writeJSONResponse(w, http.StatusAccepted, job)
}

// handleListJobs lists jobs, optionally filtered by dataset
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var (
		jobs []*models.Job
		err  error
	)
	if datasetID := r.URL.Query().Get("dataset_id"); datasetID != "" {
		jobs, err = s.store.ListJobsByDataset(datasetID)
	} else {
		jobs, err = s.store.ListJobs()
	}
	if err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to list jobs: %v", err))
		return
	}

	writeJSONResponse(w, http.StatusOK, jobs)
}

// handleGetJob returns one job with its progress and, once completed,
// its result
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	job, err := s.store.GetJob(vars["id"])
	if err != nil {
		writeNotFoundResponse(w, err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, job)
}

// latestReport finds the report of the newest completed preparation run
// for a dataset
func (s *Server) latestReport(datasetID string) (*report.Report, error) {
	jobs, err := s.store.ListJobsByDataset(datasetID)
	if err != nil {
		return nil, err
	}

	// Jobs come back newest first
	for _, job := range jobs {
		if job.Status == models.JobStatusCompleted && job.Result != nil && job.Result.Report != nil {
			return job.Result.Report, nil
		}
	}

	return nil, fmt.Errorf("no completed preparation run for dataset: %s", datasetID)
}

// handleGetReport returns the preparation report of the latest completed
// run as JSON
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	meta, err := s.store.GetDataset(vars["id"])
	if err != nil {
		writeNotFoundResponse(w, err.Error())
		return
	}

	rep, err := s.latestReport(meta.ID)
	if err != nil {
		writeNotFoundResponse(w, err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, rep)
}

// handleGetReportPDF renders the latest preparation report as a PDF
// download
func (s *Server) handleGetReportPDF(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	meta, err := s.store.GetDataset(vars["id"])
	if err != nil {
		writeNotFoundResponse(w, err.Error())
		return
	}

	rep, err := s.latestReport(meta.ID)
	if err != nil {
		writeNotFoundResponse(w, err.Error())
		return
	}

	base := strings.TrimSuffix(meta.Filename, filepath.Ext(meta.Filename))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"_report.pdf"))

	if err := report.WritePDF(rep, w); err != nil {
		utils.GetLogger().Error("Failed to stream PDF report", err, utils.Component("api"))
		return
	}

	s.recorder.Record(&models.Action{
		Kind:      models.ActionExport,
		DatasetID: meta.ID,
		Rows:      rep.FinalShape.Rows,
		Columns:   rep.FinalShape.Columns,
		Detail:    "pdf",
	})
}

type compareRequest struct {
	TargetColumn string `json:"target_column,omitempty"`
}

// handleCompareDataset trains the model battery on the original and the
// processed file and returns the score comparison. Requires a completed
// preparation run; the comparison itself is synchronous.
func (s *Server) handleCompareDataset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	meta, err := s.store.GetDataset(vars["id"])
	if err != nil {
		writeNotFoundResponse(w, err.Error())
		return
	}

	if !meta.Processed() {
		writeBadRequestResponse(w, "Dataset has no processed output yet; run a preprocess job first")
		return
	}

	var req compareRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequestResponse(w, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
	}

	original, err := dataset.Load(meta.Path)
	if err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to load original dataset: %v", err))
		return
	}
	processed, err := dataset.Load(meta.ProcessedPath)
	if err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to load processed dataset: %v", err))
		return
	}

	start := time.Now()
	comparison, err := compare.Compare(original, processed, req.TargetColumn)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.recorder.Record(&models.Action{
		Kind:      models.ActionCompare,
		DatasetID: meta.ID,
		Rows:      original.Rows(),
		Columns:   original.Cols(),
		ElapsedMS: time.Since(start).Milliseconds(),
	})

	writeJSONResponse(w, http.StatusOK, comparison)
}
