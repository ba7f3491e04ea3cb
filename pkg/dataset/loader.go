package dataset

import (
	"path/filepath"
	"strings"
)

// Load reads a tabular file into a dataset, dispatching on the file
// extension. CSV and XLSX are supported.
func Load(path string) (*Dataset, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, "")
	default:
		return nil, &UnsupportedFormatError{Format: ext}
	}
}

// SupportedExtension reports whether the loader handles files with the
// given name's extension.
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}
