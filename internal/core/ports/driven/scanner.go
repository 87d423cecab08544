package driven

import (
	"context"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
)

// CorpusScanner enumerates the documents currently present in the
// corpus tree.
type CorpusScanner interface {
	// Scan walks the corpus root and streams every recognized file.
	// Entries arrive in no particular order and are deduplicated by
	// path. The error channel carries at most one error; receiving
	// one means the enumeration is incomplete and the run must abort,
	// because a partial listing would misclassify unvisited files as
	// deleted.
	//
	// Both channels are closed when the walk finishes.
	Scan(ctx context.Context) (<-chan domain.CorpusEntry, <-chan error)

	// Root returns the corpus root directory being scanned.
	Root() string
}

// CorpusWatcher pushes filesystem change notifications for the corpus
// tree. Watch mode uses these to decide when to re-run a sync; the
// events themselves never feed the index directly.
type CorpusWatcher interface {
	// Watch emits an event per relevant filesystem change until ctx
	// is cancelled. Directories created under the root are picked up
	// at runtime. The channel is closed on cancellation or watcher
	// failure.
	Watch(ctx context.Context) (<-chan domain.CorpusEvent, error)
}
