package driven

import (
	"context"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
)

// IndexBackend stores indexed chunks grouped into named collections.
// Implementations own embedding: a chunk handed to Upsert arrives as
// text plus metadata, and the backend decides how (and whether) to
// vectorize it.
type IndexBackend interface {
	// ListSources returns the distinct source identifiers currently
	// present in the collection, mapped to their content fingerprint
	// (empty string when the backend stores none). Returns
	// domain.ErrCollectionNotFound when the collection has never been
	// written; callers treat that as a fresh index, not a failure.
	ListSources(ctx context.Context, collection string) (map[string]string, error)

	// Upsert writes one batch of chunks. The collection is created on
	// first write. Batches are independent: a failed batch leaves
	// earlier batches in place.
	Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error

	// DeleteWhere removes every chunk matching the filter.
	// Removing an absent source is not an error.
	DeleteWhere(ctx context.Context, collection string, filter domain.ChunkFilter) error

	// Reset drops the collection and everything in it.
	Reset(ctx context.Context, collection string) error

	// Ping validates the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
