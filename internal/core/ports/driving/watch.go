package driving

import (
	"context"
	"time"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
)

// WatchRunner keeps the index in step with a changing corpus by
// re-running sync after filesystem activity settles.
type WatchRunner interface {
	// Watch blocks until ctx is cancelled, running one sync up front
	// and another after each debounced burst of corpus changes. The
	// initial run's failure is fatal; later run failures are logged
	// and watching continues.
	Watch(ctx context.Context, opts WatchOptions) error
}

// WatchOptions adjusts watch mode.
type WatchOptions struct {
	// Debounce delays the re-sync until the corpus has been quiet for
	// this long, so an editor save burst triggers one run instead of
	// five. Zero or negative uses the default.
	Debounce time.Duration

	// OnReport, when set, receives each completed run's report.
	OnReport func(domain.RunReport)
}
