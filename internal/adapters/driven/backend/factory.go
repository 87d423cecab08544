// Package backend selects and constructs index backend implementations.
package backend

import (
	"fmt"

	"github.com/vellum-labs/kbsync-cli/internal/adapters/driven/backend/chroma"
	"github.com/vellum-labs/kbsync-cli/internal/adapters/driven/backend/memory"
	"github.com/vellum-labs/kbsync-cli/internal/adapters/driven/backend/sqlite"
	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
)

// New creates an index backend from configuration. Backends that
// vectorize client-side take ownership of the embedder: closing the
// backend closes it too.
func New(settings domain.BackendSettings, embedder driven.EmbeddingService) (driven.IndexBackend, error) {
	switch settings.Kind {
	case domain.BackendSQLite:
		return sqlite.NewStore(settings.DataDir, embedder)

	case domain.BackendChroma:
		return chroma.New(chroma.Config{URL: settings.URL}, embedder)

	case domain.BackendMemory:
		// The memory backend never embeds.
		if embedder != nil {
			_ = embedder.Close()
		}
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("%w: unknown backend kind %q",
			domain.ErrInvalidInput, settings.Kind)
	}
}
