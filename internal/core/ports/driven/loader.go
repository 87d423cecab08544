package driven

import (
	"context"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
)

// DocumentLoader extracts plain text from files of specific
// extensions (e.g. markdown, PDF).
type DocumentLoader interface {
	// Extensions returns the file extensions this loader handles,
	// lowercase with leading dot.
	Extensions() []string

	// Priority returns the selection priority (higher = preferred)
	// when multiple loaders claim the same extension.
	// Format-specific loaders should return 50-89.
	// Fallback loaders should return 1-9.
	Priority() int

	// Load reads the file and returns its extracted text.
	Load(ctx context.Context, path string) (string, error)
}

// LoaderRegistry selects the appropriate loader for a file.
// It maintains a priority-ordered mapping from extension to loader.
type LoaderRegistry interface {
	// Register adds a loader to the registry.
	Register(loader DocumentLoader)

	// ForExtension returns the highest-priority loader for the
	// extension (lowercase, leading dot). Returns
	// domain.ErrUnsupportedExtension when none is registered.
	ForExtension(ext string) (DocumentLoader, error)

	// SupportedExtensions returns all extensions that can be loaded.
	SupportedExtensions() []string
}

// Chunker splits extracted text into overlapping pieces sized for
// embedding.
type Chunker interface {
	// Chunk splits text into consecutive pieces, minting an ID per
	// piece and stamping each with the source's metadata. Adjacent
	// pieces share a configured overlap so sentences spanning a
	// boundary stay searchable.
	Chunk(text string, meta domain.ChunkMetadata) []domain.Chunk
}
