package driving

import (
	"context"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
)

// SyncRunner drives one synchronization run: scan the corpus, diff it
// against the index, apply the difference.
type SyncRunner interface {
	// Run executes a full run and reports what it did. Only one run
	// may be active per process; a second concurrent call returns
	// domain.ErrSyncInProgress. Per-source and per-batch failures are
	// carried in the report, not the error.
	Run(ctx context.Context, opts RunOptions) (domain.RunReport, error)

	// Status returns a snapshot of the active run for progress
	// displays. Safe to call from other goroutines while Run is
	// executing.
	Status() domain.RunStatus
}

// RunOptions adjusts a single run.
type RunOptions struct {
	// DryRun computes and reports the diff without writing anything.
	DryRun bool
}
