package services

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driving"
	"github.com/vellum-labs/kbsync-cli/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.SyncRunner = (*Engine)(nil)

// Engine drives one synchronization run end to end: enumerate the
// corpus, snapshot the index, diff the two, apply the difference.
type Engine struct {
	cfg      domain.Config
	scanner  driven.CorpusScanner
	registry driven.LoaderRegistry
	chunker  driven.Chunker
	backend  driven.IndexBackend

	// running is the in-process run lock; backends assume exclusive
	// write access to the collection for the duration of a run.
	running atomic.Bool

	mu     sync.RWMutex
	status domain.RunStatus
}

// NewEngine creates a sync engine. The configuration is normalized
// here; callers validate it beforehand.
func NewEngine(
	cfg domain.Config,
	scanner driven.CorpusScanner,
	registry driven.LoaderRegistry,
	chunker driven.Chunker,
	backend driven.IndexBackend,
) *Engine {
	cfg.Normalize()
	return &Engine{
		cfg:      cfg,
		scanner:  scanner,
		registry: registry,
		chunker:  chunker,
		backend:  backend,
		status:   domain.RunStatus{Phase: domain.PhaseIdle},
	}
}

// Run executes one synchronization run and reports what it did.
// Scan failures abort; everything after the diff degrades per source
// or per batch and lands in the report instead.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (e *Engine) Run(ctx context.Context, opts driving.RunOptions) (domain.RunReport, error) {
	// 1. Take the run lock; one run per process
	if !e.running.CompareAndSwap(false, true) {
		return domain.RunReport{}, domain.ErrSyncInProgress
	}
	defer e.running.Store(false)
	defer e.setStatus(domain.RunStatus{Phase: domain.PhaseIdle})

	report := domain.RunReport{
		Started:       time.Now(),
		DryRun:        opts.DryRun,
		FailedLoads:   make(map[string]error),
		FailedBatches: make(map[int]error),
		FailedDeletes: make(map[string]error),
	}

	logger.Section("Sync")
	logger.Info("Syncing %s into collection %q", e.scanner.Root(), e.cfg.Collection)

	// 2. Enumerate the corpus
	e.setStatus(domain.RunStatus{Phase: domain.PhaseScanning, Message: "scanning corpus"})
	entries, err := e.collectCorpus(ctx)
	if err != nil {
		return report, err
	}
	report.Scanned = len(entries)
	logger.Info("Scanned %d corpus files", len(entries))

	// 3. Snapshot the index
	snapshot, fresh, degraded := e.snapshot(ctx)
	report.FreshIndex = fresh

	// 4. Diff corpus against snapshot
	e.setStatus(domain.RunStatus{Phase: domain.PhaseDiffing, Message: "diffing"})
	corpus := make(map[string]string, len(entries))
	byPath := make(map[string]domain.CorpusEntry, len(entries))
	for _, entry := range entries {
		corpus[entry.Path] = entry.Fingerprint
		byPath[entry.Path] = entry
	}
	diff := domain.Reconcile(corpus, snapshot)
	report.New = len(diff.New)
	report.Unchanged = len(diff.Unchanged)
	report.Updated = len(diff.Updated)
	report.Deleted = len(diff.Deleted)
	logger.Info("Diff: %d new, %d updated, %d unchanged, %d deleted",
		report.New, report.Updated, report.Unchanged, report.Deleted)

	if opts.DryRun {
		e.setStatus(domain.RunStatus{Phase: domain.PhaseReporting})
		report.Duration = time.Since(report.Started)
		return report, nil
	}

	// 5. Load and chunk new and updated sources
	toLoad := make([]domain.CorpusEntry, 0, len(diff.New)+len(diff.Updated))
	for _, src := range diff.New {
		toLoad = append(toLoad, byPath[src])
	}
	for _, src := range diff.Updated {
		toLoad = append(toLoad, byPath[src])
	}
	e.setStatus(domain.RunStatus{Phase: domain.PhaseApplying, Total: len(toLoad), Message: "loading sources"})
	chunksBySource := e.loadAndChunk(ctx, toLoad, &report)

	// 6. Sources being replaced lose their old chunks first; otherwise
	// both generations would coexist under different chunk IDs.
	replace := diff.Updated
	if degraded {
		// The snapshot was unreadable, so any "new" source may already
		// be indexed. Clearing each one first keeps the upsert
		// idempotent per source.
		replace = make([]string, 0, len(chunksBySource))
		for src := range chunksBySource {
			replace = append(replace, src)
		}
		sort.Strings(replace)
	}
	for _, src := range replace {
		if _, ok := chunksBySource[src]; !ok {
			continue // load failed; leave the old chunks standing
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := e.backend.DeleteWhere(ctx, e.cfg.Collection, domain.ChunkFilter{Source: src}); err != nil {
			werr := &domain.BackendWriteError{Source: src, Err: err}
			logger.Warn("%v; keeping the previous version", werr)
			report.FailedDeletes[src] = werr
			delete(chunksBySource, src)
		}
	}

	// 7. Accumulate chunks and write them in fixed-size batches.
	// Batches are independent: a failure is recorded and the run
	// moves on, leaving earlier batches in place.
	order := make([]string, 0, len(diff.New)+len(diff.Updated))
	order = append(order, diff.New...)
	order = append(order, diff.Updated...)

	var all []domain.Chunk
	for _, src := range order {
		all = append(all, chunksBySource[src]...)
	}
	total := len(all)
	e.setStatus(domain.RunStatus{Phase: domain.PhaseApplying, Total: total, Message: "writing chunks"})

	for start := 0; start < total; start += e.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		end := min(start+e.cfg.BatchSize, total)
		ordinal := start/e.cfg.BatchSize + 1

		if err := e.backend.Upsert(ctx, e.cfg.Collection, all[start:end]); err != nil {
			werr := &domain.BackendWriteError{Batch: ordinal, Err: err}
			logger.Warn("%v; continuing with the next batch", werr)
			report.FailedBatches[ordinal] = werr
			continue
		}
		report.Batches++
		report.ChunksWritten += end - start
		e.progress(domain.PhaseApplying, report.ChunksWritten, total, "writing chunks")
	}

	// 8. Remove sources that left the corpus
	deleted := 0
	for _, src := range diff.Deleted {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := e.backend.DeleteWhere(ctx, e.cfg.Collection, domain.ChunkFilter{Source: src}); err != nil {
			werr := &domain.BackendWriteError{Source: src, Err: err}
			logger.Warn("%v; will retry next run", werr)
			report.FailedDeletes[src] = werr
			continue
		}
		deleted++
	}

	// 9. Summarise
	e.setStatus(domain.RunStatus{Phase: domain.PhaseReporting})
	report.Duration = time.Since(report.Started)
	logger.Info("Sync complete in %s: %d chunks written in %d batches, %d sources removed",
		report.Duration.Round(time.Millisecond), report.ChunksWritten, report.Batches, deleted)
	if report.HasFailures() {
		logger.Warn("Run finished with %d load, %d batch and %d delete failures",
			len(report.FailedLoads), len(report.FailedBatches), len(report.FailedDeletes))
	}

	return report, nil
}

// Status returns a snapshot of the active run. Safe to call from
// other goroutines while Run executes.
func (e *Engine) Status() domain.RunStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// collectCorpus drains the scanner. Any scan error makes the listing
// unusable: unvisited files would diff as deleted.
func (e *Engine) collectCorpus(ctx context.Context) ([]domain.CorpusEntry, error) {
	entriesCh, errsCh := e.scanner.Scan(ctx)

	var entries []domain.CorpusEntry
	for entriesCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}

		case entry, ok := <-entriesCh:
			if !ok {
				entriesCh = nil
				continue
			}
			entries = append(entries, entry)
			e.progress(domain.PhaseScanning, len(entries), 0, "scanning corpus")
		}
	}

	return entries, nil
}

// snapshot reads the indexed source set. A missing collection is a
// fresh index. Any other failure degrades the run: the diff sees an
// empty index so new content still flows, and deletions are skipped
// because absence cannot be told apart from unreachability.
func (e *Engine) snapshot(ctx context.Context) (sources map[string]string, fresh, degraded bool) {
	sources, err := e.backend.ListSources(ctx, e.cfg.Collection)
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound):
		logger.Info("Collection %q does not exist yet; building a fresh index", e.cfg.Collection)
		return map[string]string{}, true, false
	case err != nil:
		unavailable := &domain.BackendUnavailableError{Err: err}
		logger.Warn("%v; treating the whole corpus as new, the run may re-embed everything", unavailable)
		return map[string]string{}, false, true
	}
	return sources, false, false
}

// loadAndChunk fans out over the sources that need loading, bounded
// by MaxParallelLoads. Failures are per-source: recorded in the
// report, never fatal.
func (e *Engine) loadAndChunk(ctx context.Context, entries []domain.CorpusEntry, report *domain.RunReport) map[string][]domain.Chunk {
	var (
		mu             sync.Mutex
		processed      atomic.Int64
		chunksBySource = make(map[string][]domain.Chunk, len(entries))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxParallelLoads)

	for _, entry := range entries {
		g.Go(func() error {
			defer func() {
				e.progress(domain.PhaseApplying, int(processed.Add(1)), len(entries), "loading sources")
			}()

			text, err := e.loadOne(gctx, entry)
			if err != nil {
				logger.Warn("Skipping %s: %v", entry.Path, err)
				mu.Lock()
				report.FailedLoads[entry.Path] = err
				mu.Unlock()
				return nil
			}

			logger.Debug("Loaded %s", entry.Path)
			chunks := e.chunker.Chunk(text, domain.ChunkMetadata{
				Source:      entry.Path,
				Product:     entry.Product,
				Fingerprint: entry.Fingerprint,
			})

			mu.Lock()
			chunksBySource[entry.Path] = chunks
			mu.Unlock()
			return nil
		})
	}

	// Workers record their own failures and never return an error.
	_ = g.Wait()

	return chunksBySource
}

// loadOne resolves a loader by extension and extracts the text.
func (e *Engine) loadOne(ctx context.Context, entry domain.CorpusEntry) (string, error) {
	loader, err := e.registry.ForExtension(filepath.Ext(entry.Path))
	if err != nil {
		return "", &domain.LoadError{Source: entry.Path, Err: err}
	}

	text, err := loader.Load(ctx, entry.AbsPath)
	if err != nil {
		return "", &domain.LoadError{Source: entry.Path, Err: err}
	}
	return text, nil
}

// setStatus replaces the status snapshot.
func (e *Engine) setStatus(status domain.RunStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = status
}

// progress updates the counters without changing phase.
func (e *Engine) progress(phase domain.RunPhase, processed, total int, message string) {
	e.setStatus(domain.RunStatus{Phase: phase, Processed: processed, Total: total, Message: message})
}
