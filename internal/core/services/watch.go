package services

import (
	"context"
	"errors"
	"time"

	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driving"
	"github.com/vellum-labs/kbsync-cli/internal/logger"
)

// Ensure WatchService implements the interface.
var _ driving.WatchRunner = (*WatchService)(nil)

// defaultDebounce is how long the corpus must stay quiet before a
// change burst triggers a run.
const defaultDebounce = 2 * time.Second

// WatchService re-runs sync whenever the corpus settles after a
// change. Events never feed the index directly; each run diffs the
// whole corpus, so a missed event costs one stale interval, not
// correctness.
type WatchService struct {
	runner  driving.SyncRunner
	watcher driven.CorpusWatcher
}

// NewWatchService creates a watch service over an existing sync
// runner and corpus watcher.
func NewWatchService(runner driving.SyncRunner, watcher driven.CorpusWatcher) *WatchService {
	return &WatchService{
		runner:  runner,
		watcher: watcher,
	}
}

// Watch runs one sync immediately, then again after each debounced
// burst of corpus changes, until ctx is cancelled.
func (w *WatchService) Watch(ctx context.Context, opts driving.WatchOptions) error {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	// The initial run brings the index level before watching starts.
	// If it fails the setup is broken and watching would be useless.
	report, err := w.runner.Run(ctx, driving.RunOptions{})
	if err != nil {
		return err
	}
	if opts.OnReport != nil {
		opts.OnReport(report)
	}

	events, err := w.watcher.Watch(ctx)
	if err != nil {
		return err
	}

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending int
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return errors.New("corpus watcher stopped")
			}
			pending++
			logger.Debug("Corpus change (%s): %s", ev.Type, ev.Path)
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}

		case <-fire:
			logger.Info("Corpus settled after %d changes; syncing", pending)
			pending = 0
			timer = nil
			fire = nil

			report, err := w.runner.Run(ctx, driving.RunOptions{})
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return err
			case err != nil:
				// Transient scan or backend trouble must not kill a
				// long-running watch; the next change retries.
				logger.Warn("Sync failed: %v; still watching", err)
			default:
				if opts.OnReport != nil {
					opts.OnReport(report)
				}
			}
		}
	}
}
