package metadatastore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tableprep/tableprep-go/pkg/models"
)

// SQLiteStore provides SQLite-based persistence for datasets, jobs and actions
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based storage instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writes, so the pool stays small
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}

	// WAL for file-backed databases; in-memory databases report
	// "delete" or "memory", which is acceptable for testing
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return nil, fmt.Errorf("failed to check journal mode: %w", err)
	}
	if journalMode != "wal" && journalMode != "delete" && journalMode != "memory" {
		return nil, fmt.Errorf("unexpected journal mode: got %s", journalMode)
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// retryOnBusy retries a database operation if it fails due to SQLITE_BUSY.
// This provides an additional safety net on top of the busy_timeout pragma.
func (s *SQLiteStore) retryOnBusy(operation func() error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if strings.Contains(err.Error(), "SQLITE_BUSY") {
			// 10ms doubling per attempt
			backoff := time.Duration(10*(1<<uint(i))) * time.Millisecond
			time.Sleep(backoff)
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries: %w", maxRetries, err)
}

// initSchema creates the database schema if it doesn't exist
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		filename TEXT NOT NULL,
		format TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		uploaded_at DATETIME NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_datasets_uploaded_at ON datasets(uploaded_at);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		dataset_id TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		submitted_at DATETIME NOT NULL,
		data TEXT NOT NULL,
		FOREIGN KEY (dataset_id) REFERENCES datasets(id)
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_dataset_id ON jobs(dataset_id);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

	CREATE TABLE IF NOT EXISTS actions (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		dataset_id TEXT,
		job_id TEXT,
		created_at DATETIME NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_actions_kind ON actions(kind);
	CREATE INDEX IF NOT EXISTS idx_actions_created_at ON actions(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveDataset saves a dataset record to the database
func (s *SQLiteStore) SaveDataset(meta *models.DatasetMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO datasets (id, name, filename, format, size_bytes, uploaded_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		meta.ID,
		meta.Name,
		meta.Filename,
		meta.Format,
		meta.SizeBytes,
		meta.UploadedAt.UTC(),
		string(data),
	)

	if err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}

	return nil
}

// GetDataset retrieves a dataset record by ID
func (s *SQLiteStore) GetDataset(id string) (*models.DatasetMeta, error) {
	var data string
	query := `SELECT data FROM datasets WHERE id = ?`

	err := s.db.QueryRow(query, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("dataset not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	var meta models.DatasetMeta
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}

	return &meta, nil
}

// ListDatasets lists all dataset records, newest first
func (s *SQLiteStore) ListDatasets() ([]*models.DatasetMeta, error) {
	return s.queryDatasets(`SELECT data FROM datasets ORDER BY uploaded_at DESC`)
}

// ListDatasetsOlderThan lists dataset records uploaded before the cutoff.
// Timestamps are stored in UTC so the column comparison is chronological.
func (s *SQLiteStore) ListDatasetsOlderThan(cutoff time.Time) ([]*models.DatasetMeta, error) {
	return s.queryDatasets(`SELECT data FROM datasets WHERE uploaded_at < ? ORDER BY uploaded_at DESC`, cutoff.UTC())
}

func (s *SQLiteStore) queryDatasets(query string, args ...any) ([]*models.DatasetMeta, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := make([]*models.DatasetMeta, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}

		var meta models.DatasetMeta
		if err := json.Unmarshal([]byte(data), &meta); err != nil {
			continue
		}

		datasets = append(datasets, &meta)
	}

	return datasets, nil
}

// DeleteDataset deletes a dataset record
func (s *SQLiteStore) DeleteDataset(id string) error {
	query := `DELETE FROM datasets WHERE id = ?`
	_, err := s.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	return nil
}

// SaveJob saves a job to the database
func (s *SQLiteStore) SaveJob(job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO jobs (id, dataset_id, type, status, submitted_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	// Workers and the API write jobs concurrently, so retry on lock
	err = s.retryOnBusy(func() error {
		_, execErr := s.db.Exec(query,
			job.ID,
			job.Spec.DatasetID,
			job.Type,
			job.Status,
			job.SubmittedAt.UTC(),
			string(data),
		)
		return execErr
	}, 5)

	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	return nil
}

// GetJob retrieves a job by ID
func (s *SQLiteStore) GetJob(id string) (*models.Job, error) {
	var data string
	query := `SELECT data FROM jobs WHERE id = ?`

	err := s.db.QueryRow(query, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job models.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// ListJobs lists all jobs, newest first
func (s *SQLiteStore) ListJobs() ([]*models.Job, error) {
	return s.queryJobs(`SELECT data FROM jobs ORDER BY submitted_at DESC`)
}

// ListJobsByDataset lists all jobs for a specific dataset
func (s *SQLiteStore) ListJobsByDataset(datasetID string) ([]*models.Job, error) {
	return s.queryJobs(`SELECT data FROM jobs WHERE dataset_id = ? ORDER BY submitted_at DESC`, datasetID)
}

func (s *SQLiteStore) queryJobs(query string, args ...any) ([]*models.Job, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*models.Job, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			continue
		}

		jobs = append(jobs, &job)
	}

	return jobs, nil
}

// UpdateJobStatus updates a job's status and optional error message. The
// serialized record and the status column are rewritten together so they
// never drift apart.
func (s *SQLiteStore) UpdateJobStatus(id string, status models.JobStatus, errorMessage string) error {
	job, err := s.GetJob(id)
	if err != nil {
		return err
	}

	job.Status = status
	if errorMessage != "" {
		job.ErrorMessage = errorMessage
	}
	if job.Terminal() && job.CompletedAt == nil {
		now := time.Now()
		job.CompletedAt = &now
	}

	return s.SaveJob(job)
}

// UpdateJobProgress updates a job's progress percentage
func (s *SQLiteStore) UpdateJobProgress(id string, progress int) error {
	job, err := s.GetJob(id)
	if err != nil {
		return err
	}

	job.Progress = progress

	return s.SaveJob(job)
}

// DeleteJob deletes a job
func (s *SQLiteStore) DeleteJob(id string) error {
	query := `DELETE FROM jobs WHERE id = ?`
	_, err := s.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

// DeleteJobsOlderThan deletes terminal jobs submitted before the cutoff
// and returns the number removed
func (s *SQLiteStore) DeleteJobsOlderThan(cutoff time.Time) (int, error) {
	query := `DELETE FROM jobs WHERE submitted_at < ? AND status IN (?, ?, ?)`
	result, err := s.db.Exec(query, cutoff.UTC(),
		models.JobStatusCompleted,
		models.JobStatusFailed,
		models.JobStatusCancelled,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return int(affected), nil
}

// SaveAction appends an action to the usage log
func (s *SQLiteStore) SaveAction(action *models.Action) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO actions (id, kind, dataset_id, job_id, created_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	err = s.retryOnBusy(func() error {
		_, execErr := s.db.Exec(query,
			action.ID,
			action.Kind,
			action.DatasetID,
			action.JobID,
			action.CreatedAt.UTC(),
			string(data),
		)
		return execErr
	}, 5)

	if err != nil {
		return fmt.Errorf("failed to save action: %w", err)
	}

	return nil
}

// ListActions lists the most recent actions, newest first
func (s *SQLiteStore) ListActions(limit int) ([]*models.Action, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT data FROM actions ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	actions := make([]*models.Action, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}

		var action models.Action
		if err := json.Unmarshal([]byte(data), &action); err != nil {
			continue
		}

		actions = append(actions, &action)
	}

	return actions, nil
}

// DeleteActionsOlderThan deletes actions recorded before the cutoff and
// returns the number removed
func (s *SQLiteStore) DeleteActionsOlderThan(cutoff time.Time) (int, error) {
	result, err := s.db.Exec(`DELETE FROM actions WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old actions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return int(affected), nil
}

// UsageSummary aggregates stored counts for the analytics endpoints
func (s *SQLiteStore) UsageSummary() (*models.UsageSummary, error) {
	summary := &models.UsageSummary{
		JobsByStatus:  make(map[string]int),
		ActionsByKind: make(map[string]int),
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM datasets`).Scan(&summary.Datasets); err != nil {
		return nil, fmt.Errorf("failed to count datasets: %w", err)
	}

	jobRows, err := s.db.Query(`SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer jobRows.Close()

	for jobRows.Next() {
		var status string
		var count int
		if err := jobRows.Scan(&status, &count); err != nil {
			continue
		}
		summary.JobsByStatus[status] = count
	}

	actionRows, err := s.db.Query(`SELECT kind, COUNT(*) FROM actions GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count actions: %w", err)
	}
	defer actionRows.Close()

	for actionRows.Next() {
		var kind string
		var count int
		if err := actionRows.Scan(&kind, &count); err != nil {
			continue
		}
		summary.ActionsByKind[kind] = count
	}

	return summary, nil
}
