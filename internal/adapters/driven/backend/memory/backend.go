// Package memory provides an in-memory index backend.
//
// It stores chunks verbatim and never embeds, which makes it the
// shared double for service and CLI tests. Nothing survives process
// exit.
package memory

import (
	"context"
	"sync"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.IndexBackend = (*Backend)(nil)

// Backend is an in-memory implementation of driven.IndexBackend.
type Backend struct {
	mu          sync.RWMutex
	collections map[string][]domain.Chunk
}

// New creates an empty in-memory index backend.
func New() *Backend {
	return &Backend{
		collections: make(map[string][]domain.Chunk),
	}
}

// ListSources returns the distinct sources in the collection mapped to
// their fingerprint. A collection that has never been written yields
// domain.ErrCollectionNotFound.
func (b *Backend) ListSources(_ context.Context, collection string) (map[string]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	chunks, ok := b.collections[collection]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}

	sources := make(map[string]string)
	for _, c := range chunks {
		sources[c.Metadata.Source] = c.Metadata.Fingerprint
	}
	return sources, nil
}

// Upsert appends the batch, creating the collection on first write.
// Chunks with an ID already present replace the stored chunk.
func (b *Backend) Upsert(_ context.Context, collection string, chunks []domain.Chunk) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing := b.collections[collection]

	byID := make(map[string]int, len(existing))
	for i, c := range existing {
		byID[c.ID] = i
	}

	for _, c := range chunks {
		if i, dup := byID[c.ID]; dup {
			existing[i] = c
			continue
		}
		byID[c.ID] = len(existing)
		existing = append(existing, c)
	}

	b.collections[collection] = existing
	return nil
}

// DeleteWhere removes every chunk matching the filter. A missing
// collection or an absent source is not an error.
func (b *Backend) DeleteWhere(_ context.Context, collection string, filter domain.ChunkFilter) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	chunks, ok := b.collections[collection]
	if !ok {
		return nil
	}

	kept := chunks[:0]
	for _, c := range chunks {
		if !filter.Matches(c) {
			kept = append(kept, c)
		}
	}
	b.collections[collection] = kept
	return nil
}

// Reset drops the collection and everything in it.
func (b *Backend) Reset(_ context.Context, collection string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.collections, collection)
	return nil
}

// Ping always succeeds.
func (b *Backend) Ping(_ context.Context) error {
	return nil
}

// Close releases nothing; the backend holds no external resources.
func (b *Backend) Close() error {
	return nil
}

// Chunks returns a copy of the chunks stored in the collection, in
// insertion order. Test helper.
func (b *Backend) Chunks(collection string) []domain.Chunk {
	b.mu.RLock()
	defer b.mu.RUnlock()

	chunks := b.collections[collection]
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out
}
