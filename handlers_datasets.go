package main

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tableprep/tableprep-go/pkg/dataset"
	"github.com/tableprep/tableprep-go/pkg/models"
	"github.com/tableprep/tableprep-go/pkg/profile"
	"github.com/tableprep/tableprep-go/utils"
)

// handleUploadDataset accepts a multipart dataset upload, parses it to
// verify the file and capture its shape, and registers it in the store
func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	// Cap the request body before buffering the form
	maxBytes := int64(s.config.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeBadRequestResponse(w, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequestResponse(w, "A dataset file is required in the \"file\" form field")
		return
	}
	defer file.Close()

	if !dataset.SupportedExtension(header.Filename) {
		writeBadRequestResponse(w, fmt.Sprintf("Unsupported file type: %s (supported: .csv, .xlsx)", header.Filename))
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	id := uuid.New().String()
	path, size, err := s.files.SaveUpload(id, header.Filename, file)
	if err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to store upload: %v", err))
		return
	}

	// Parse now so a malformed file never becomes a stored dataset
	ds, err := dataset.Load(path)
	if err != nil {
		s.files.Remove(path)
		writeDomainError(w, err)
		return
	}

	meta := &models.DatasetMeta{
		ID:         id,
		Name:       name,
		Filename:   header.Filename,
		Path:       path,
		Format:     strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), "."),
		SizeBytes:  size,
		Rows:       ds.Rows(),
		Columns:    ds.Cols(),
		UploadedAt: time.Now().UTC(),
	}

	if err := s.store.SaveDataset(meta); err != nil {
		s.files.Remove(path)
		writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to save dataset: %v", err))
		return
	}

	s.recorder.Record(&models.Action{
		Kind:      models.ActionUpload,
		DatasetID: meta.ID,
		Rows:      meta.Rows,
		Columns:   meta.Columns,
		Detail:    meta.Filename,
	})

	writeJSONResponse(w, http.StatusCreated, meta)
}

// handleListDatasets lists all registered datasets, newest first
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.store.ListDatasets()
	if err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to list datasets: %v", err))
		return
	}

	writeJSONResponse(w, http.StatusOK, datasets)
}

// handleGetDataset returns the stored record for one dataset
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	meta, err := s.store.GetDataset(vars["id"])
	if err != nil {
		writeNotFoundResponse(w, err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, meta)
}

// handleDeleteDataset removes a dataset, its files and its job history
func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	meta, err := s.store.GetDataset(vars["id"])
	if err != nil {
		writeNotFoundResponse(w, err.Error())
		return
	}

	if err := s.files.Remove(meta.Path); err != nil {
		utils.GetLogger().Warn("Failed to remove dataset file",
			utils.String("path", meta.Path),
			utils.Component("api"))
	}
	if err := s.files.Remove(meta.ProcessedPath); err != nil {
		utils.GetLogger().Warn("Failed to remove processed file",
			utils.String("path", meta.ProcessedPath),
			utils.Component("api"))
	}

	// Jobs for the dataset go with it
	jobs, err := s.store.ListJobsByDataset(meta.ID)
	if err == nil {
		for _, job := range jobs {
			if err := s.store.DeleteJob(job.ID); err != nil {
				utils.GetLogger().Warn("Failed to delete job",
					utils.String("job_id", job.ID),
					utils.Component("api"))
			}
		}
	}

	if err := s.store.DeleteDataset(meta.ID); err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to delete dataset: %v", err))
		return
	}

	s.recorder.Record(&models.Action{
		Kind:      models.ActionDelete,
		DatasetID: meta.ID,
		Rows:      meta.Rows,
		Columns:   meta.Columns,
	})

	writeOperationSuccessResponse(w, "Dataset deleted successfully", "dataset_id", meta.ID)
}

// handleProfileDataset profiles every column of the dataset. The profile
// reflects the processed file once a preparation run has produced one.
func (s *Server) handleProfileDataset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	meta, err := s.store.GetDataset(vars["id"])
	if err != nil {
		writeNotFoundResponse(w, err.Error())
		return
	}

	ds, err := dataset.Load(meta.CurrentPath())
	if err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to load dataset: %v", err))
		return
	}

	diagnostics := profile.Describe(ds)

	s.recorder.Record(&models.Action{
		Kind:      models.ActionProfile,
		DatasetID: meta.ID,
		Rows:      ds.Rows(),
		Columns:   ds.Cols(),
	})

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"dataset_id": meta.ID,
		"name":       meta.Name,
		"shape":      ds.Shape(),
		"processed":  meta.Processed(),
		"columns":    diagnostics,
	})
}

// handleDownloadDataset serves the dataset as CSV or XLSX. The processed
// file is served once a preparation run has produced one, otherwise the
// original upload.
func (s *Server) handleDownloadDataset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	meta, err := s.store.GetDataset(vars["id"])
	if err != nil {
		writeNotFoundResponse(w, err.Error())
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	path := meta.CurrentPath()
	base := strings.TrimSuffix(meta.Filename, filepath.Ext(meta.Filename))
	rows, cols := meta.Rows, meta.Columns
	if meta.Processed() {
		rows, cols = meta.ProcessedRows, meta.ProcessedColumns
	}

	switch format {
	case "csv":
		// Same on-disk format, stream the file as is
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			f, err := s.files.Open(path)
			if err != nil {
				writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to open dataset file: %v", err))
				return
			}
			defer f.Close()

			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".csv"))
			io.Copy(w, f)
		} else {
			ds, err := dataset.Load(path)
			if err != nil {
				writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to load dataset: %v", err))
				return
			}
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".csv"))
			if err := dataset.WriteCSV(ds, w); err != nil {
				utils.GetLogger().Error("Failed to stream CSV export", err, utils.Component("api"))
				return
			}
		}
	case "xlsx":
		ds, err := dataset.Load(path)
		if err != nil {
			writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to load dataset: %v", err))
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".xlsx"))
		if err := dataset.WriteXLSX(ds, w, ""); err != nil {
			utils.GetLogger().Error("Failed to stream XLSX export", err, utils.Component("api"))
			return
		}
	default:
		writeBadRequestResponse(w, fmt.Sprintf("Unsupported export format: %s (supported: csv, xlsx)", format))
		return
	}

	s.recorder.Record(&models.Action{
		Kind:      models.ActionExport,
		DatasetID: meta.ID,
		Rows:      rows,
		Columns:   cols,
		Detail:    format,
	})
}
