package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// StorageError is returned when a snapshot file cannot be read, decoded
// or written
type StorageError struct {
	Op       string
	Filename string
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("could not %s snapshot %s: %v", e.Op, e.Filename, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// A database is a single JSON file holding the whole state of a store.
// Every save replaces the file completely
type Database struct {
	filename string
}

func NewDatabase(filename string) Database {
	return Database{filename}
}

func (db *Database) Filename() string {
	return db.filename
}

// Load decodes the snapshot into value. It reports false, and leaves
// value untouched, if the file has never been written
func (db *Database) Load(value any) (bool, error) {

	data, err := os.ReadFile(db.filename)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &StorageError{"read", db.filename, err}
	}

	if err := json.Unmarshal(data, value); err != nil {
		return false, &StorageError{"decode", db.filename, err}
	}
	return true, nil
}

// Save writes the snapshot to a temporary file next to the target
// and renames it over the target, so readers see either the old or the new one
func (db *Database) Save(value any) error {

	data, err := json.Marshal(value)
	if err != nil {
		return &StorageError{"encode", db.filename, err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(db.filename), filepath.Base(db.filename)+".*.tmp")
	if err != nil {
		return &StorageError{"write", db.filename, err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{"write", db.filename, err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{"write", db.filename, err}
	}
	if err := os.Rename(tmpName, db.filename); err != nil {
		os.Remove(tmpName)
		return &StorageError{"write", db.filename, err}
	}
	return nil
}
