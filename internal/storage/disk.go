package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/jeongbi/internal/models"
)

// sqliteSidecars are the files SQLite keeps next to a database in WAL mode.
var sqliteSidecars = []string{"-wal", "-shm"}

// MeasureDiskUsage sizes the catalog database with its WAL files, the keyword index
// directory and the vector index file. Missing paths count as zero.
func MeasureDiskUsage(catalogPath, keywordPath, vectorPath string) (models.DiskUsage, error) {
	var u models.DiskUsage
	var err error
	if catalogPath != "" && catalogPath != ":memory:" {
		for _, p := range append([]string{catalogPath}, sidecars(catalogPath)...) {
			n, err := pathSize(p)
			if err != nil {
				return u, err
			}
			u.CatalogBytes += n
		}
	}
	if u.KeywordIndexBytes, err = pathSize(keywordPath); err != nil {
		return u, err
	}
	if u.VectorIndexBytes, err = pathSize(vectorPath); err != nil {
		return u, err
	}
	u.TotalBytes = u.CatalogBytes + u.KeywordIndexBytes + u.VectorIndexBytes
	return u, nil
}

func sidecars(dbPath string) []string {
	out := make([]string, 0, len(sqliteSidecars))
	for _, s := range sqliteSidecars {
		out = append(out, dbPath+s)
	}
	return out
}

// pathSize returns the size of a file, or the recursive size of a directory.
func pathSize(p string) (int64, error) {
	if p == "" {
		return 0, nil
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}
