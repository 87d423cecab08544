package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions. Callers match these
// with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCollectionNotFound indicates the index collection has not
	// been created yet. Sync treats this as a fresh index, not a
	// failure.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrSyncInProgress indicates a sync run is already active in
	// this process.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrUnsupportedExtension indicates no loader is registered for
	// a file's extension.
	ErrUnsupportedExtension = errors.New("unsupported file extension")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.New("invalid input")
)

// ScanError reports a failure while enumerating the corpus. Scanning
// errors are fatal: a partial corpus listing would misclassify every
// unvisited file as deleted.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanning %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// LoadError reports a failure to read or extract a single source.
// Load errors never abort the run; the source is recorded as failed
// and the run continues.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// BackendUnavailableError reports that the index backend could not be
// reached when reading the snapshot. Sync degrades to an empty
// snapshot so new content still flows, and skips deletions.
type BackendUnavailableError struct {
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("index backend unavailable: %v", e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// BackendWriteError reports a failed upsert batch or deletion. Batch
// identifies which write failed; earlier batches are not rolled back.
type BackendWriteError struct {
	Batch  int
	Source string
	Err    error
}

func (e *BackendWriteError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("deleting %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("writing batch %d: %v", e.Batch, e.Err)
}

func (e *BackendWriteError) Unwrap() error { return e.Err }
