package models

import "time"

// DatasetMeta describes one uploaded dataset file and the shape observed
// when it was parsed. The processed fields are filled in once a
// preprocessing job has written an output file for the dataset.
type DatasetMeta struct {
	ID               string    `json:"dataset_id"`
	Name             string    `json:"name"`
	Filename         string    `json:"filename"`
	Path             string    `json:"path"`
	Format           string    `json:"format"`
	SizeBytes        int64     `json:"size_bytes"`
	Rows             int       `json:"rows"`
	Columns          int       `json:"columns"`
	ProcessedPath    string    `json:"processed_path,omitempty"`
	ProcessedRows    int       `json:"processed_rows,omitempty"`
	ProcessedColumns int       `json:"processed_columns,omitempty"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// Processed reports whether a preprocessing run has produced an output
// file for this dataset.
func (m *DatasetMeta) Processed() bool {
	return m.ProcessedPath != ""
}

// CurrentPath returns the processed file when one exists, otherwise the
// original upload.
func (m *DatasetMeta) CurrentPath() string {
	if m.Processed() {
		return m.ProcessedPath
	}
	return m.Path
}
