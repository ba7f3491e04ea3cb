package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFileStore_SaveUpload tests writing an upload and reading it back
func TestFileStore_SaveUpload(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(filepath.Join(dir, "uploads"), filepath.Join(dir, "data"))
	require.NoError(t, err)

	content := "a,b\n1,2\n"
	path, size, err := fs.SaveUpload("ds-1", "sales.CSV", strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)
	assert.True(t, strings.HasSuffix(path, "ds-1.csv"), "extension should be lowercased: %s", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

// TestFileStore_OutputPath tests the output location layout
func TestFileStore_OutputPath(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(filepath.Join(dir, "uploads"), filepath.Join(dir, "data"))
	require.NoError(t, err)

	path := fs.OutputPath("ds-1")
	assert.Equal(t, filepath.Join(dir, "data", "outputs", "ds-1.csv"), path)

	// The outputs directory must exist so the runner can write directly
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

// TestFileStore_Remove tests deletion, including already-missing files
func TestFileStore_Remove(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(filepath.Join(dir, "uploads"), filepath.Join(dir, "data"))
	require.NoError(t, err)

	path, _, err := fs.SaveUpload("ds-1", "x.csv", strings.NewReader("a\n1\n"))
	require.NoError(t, err)

	require.NoError(t, fs.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing twice or removing nothing is not an error
	assert.NoError(t, fs.Remove(path))
	assert.NoError(t, fs.Remove(""))
}
