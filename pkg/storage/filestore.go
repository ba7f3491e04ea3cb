package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore manages dataset files on disk: raw uploads under the upload
// directory and preprocessed outputs under the data directory.
type FileStore struct {
	uploadDir string
	outputDir string
}

// NewFileStore creates a new dataset file store
func NewFileStore(uploadDir, dataDir string) (*FileStore, error) {
	outputDir := filepath.Join(dataDir, "outputs")

	for _, dir := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}

	return &FileStore{
		uploadDir: uploadDir,
		outputDir: outputDir,
	}, nil
}

// SaveUpload writes an uploaded file under the upload directory, keyed by
// dataset ID with the original file extension. It returns the stored path
// and the number of bytes written.
func (fs *FileStore) SaveUpload(datasetID, filename string, r io.Reader) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(fs.uploadDir, datasetID+ext)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload file: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to write upload file: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close upload file: %w", err)
	}

	return path, written, nil
}

// OutputPath returns the path where a dataset's preprocessed output is
// written.
func (fs *FileStore) OutputPath(datasetID string) string {
	return filepath.Join(fs.outputDir, datasetID+".csv")
}

// Open opens a stored dataset file for reading
func (fs *FileStore) Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored file, ignoring files already gone
func (fs *FileStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete dataset file: %w", err)
	}
	return nil
}
