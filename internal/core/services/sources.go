package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driving"
)

// Ensure Admin implements the interface.
var _ driving.IndexAdmin = (*Admin)(nil)

// Admin exposes maintenance operations on the index collection.
type Admin struct {
	collection string
	backend    driven.IndexBackend
}

// NewAdmin creates an index admin service for one collection.
func NewAdmin(collection string, backend driven.IndexBackend) *Admin {
	return &Admin{
		collection: collection,
		backend:    backend,
	}
}

// Sources lists the indexed source identifiers, sorted. A collection
// that does not exist yet lists as empty.
func (a *Admin) Sources(ctx context.Context) ([]driving.IndexedSource, error) {
	snapshot, err := a.backend.ListSources(ctx, a.collection)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	sources := make([]driving.IndexedSource, 0, len(snapshot))
	for src, fingerprint := range snapshot {
		sources = append(sources, driving.IndexedSource{
			Source:        src,
			Fingerprinted: fingerprint != "",
		})
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Source < sources[j].Source
	})

	return sources, nil
}

// Reset drops the collection. The next run rebuilds it from scratch.
func (a *Admin) Reset(ctx context.Context) error {
	if err := a.backend.Reset(ctx, a.collection); err != nil {
		return fmt.Errorf("resetting collection %s: %w", a.collection, err)
	}
	return nil
}
