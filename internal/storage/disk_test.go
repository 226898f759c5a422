package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBytes(t *testing.T, path string, n int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, n), 0644))
}

func TestMeasureDiskUsage(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "jeongbi.db")
	writeBytes(t, db, 100)
	writeBytes(t, db+"-wal", 20)
	writeBytes(t, filepath.Join(dir, "keyword.bleve", "store", "root.bolt"), 7)
	writeBytes(t, filepath.Join(dir, "keyword.bleve", "index_meta.json"), 3)
	vectors := filepath.Join(dir, "vectors.bin")
	writeBytes(t, vectors, 64)

	u, err := MeasureDiskUsage(db, filepath.Join(dir, "keyword.bleve"), vectors)
	require.NoError(t, err)
	assert.EqualValues(t, 120, u.CatalogBytes)
	assert.EqualValues(t, 10, u.KeywordIndexBytes)
	assert.EqualValues(t, 64, u.VectorIndexBytes)
	assert.EqualValues(t, 194, u.TotalBytes)
}

func TestMeasureDiskUsage_MissingPaths(t *testing.T) {
	dir := t.TempDir()
	u, err := MeasureDiskUsage(filepath.Join(dir, "none.db"), filepath.Join(dir, "none.bleve"), "")
	require.NoError(t, err)
	assert.Zero(t, u.TotalBytes)
}

func TestMeasureDiskUsage_InMemoryCatalog(t *testing.T) {
	u, err := MeasureDiskUsage(":memory:", "", "")
	require.NoError(t, err)
	assert.Zero(t, u.CatalogBytes)
}
