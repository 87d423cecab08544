package domain

import "time"

// RunPhase identifies where a sync run currently is. Phases advance
// monotonically; a run that fails stops in whatever phase it reached.
type RunPhase string

const (
	PhaseIdle      RunPhase = "idle"
	PhaseScanning  RunPhase = "scanning"
	PhaseDiffing   RunPhase = "diffing"
	PhaseApplying  RunPhase = "applying"
	PhaseReporting RunPhase = "reporting"
)

// RunStatus is a point-in-time snapshot of an active run, polled by
// progress displays.
type RunStatus struct {
	Phase     RunPhase
	Processed int
	Total     int
	Message   string
}

// RunReport summarises a completed sync run. Counts are by source,
// not by chunk, except where named otherwise.
type RunReport struct {
	// Scanned is the total number of corpus entries found.
	Scanned int

	// New, Unchanged, Updated and Deleted mirror the diff that drove
	// the run.
	New       int
	Unchanged int
	Updated   int
	Deleted   int

	// ChunksWritten is the number of chunks upserted across all
	// batches, and Batches how many writes carried them.
	ChunksWritten int
	Batches       int

	// FreshIndex is true when the index collection did not exist
	// before this run.
	FreshIndex bool

	// DryRun is true when the run computed the diff but applied
	// nothing.
	DryRun bool

	// FailedLoads maps source identifier to the error that prevented
	// loading it. Failed sources stay out of the index until a later
	// run succeeds.
	FailedLoads map[string]error

	// FailedBatches maps batch ordinal (1-based) to its write error.
	FailedBatches map[int]error

	// FailedDeletes maps source identifier to its deletion error.
	// Failed deletions leave stale chunks behind; the next run
	// retries them.
	FailedDeletes map[string]error

	Started  time.Time
	Duration time.Duration
}

// HasFailures reports whether any per-source or per-batch operation
// failed during the run.
func (r RunReport) HasFailures() bool {
	return r.FailureCount() > 0
}

// FailureCount totals the per-source and per-batch failures.
func (r RunReport) FailureCount() int {
	return len(r.FailedLoads) + len(r.FailedBatches) + len(r.FailedDeletes)
}

// Applied reports whether the run changed the index.
func (r RunReport) Applied() bool {
	if r.DryRun {
		return false
	}
	return r.ChunksWritten > 0 || r.Deleted > len(r.FailedDeletes)
}
