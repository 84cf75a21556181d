package storage

import (
	"errors"
	"io/fs"
	"os"
)

// DiskFiles is the local-filesystem implementation of the file boundary
// the report service depends on. Removal is idempotent: a missing file is
// not an error.
type DiskFiles struct{}

func NewDiskFiles() DiskFiles {
	return DiskFiles{}
}

func (DiskFiles) Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (DiskFiles) Remove(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
