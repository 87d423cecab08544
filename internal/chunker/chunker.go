// Package chunker provides fixed-size text chunking with overlap.
package chunker

import (
	"github.com/google/uuid"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping runes
// between consecutive chunks.
const DefaultChunkOverlap = 100

// Chunker splits extracted text into fixed-size chunks.
// Sizes are measured in runes so multi-byte characters are never
// split mid-sequence.
type Chunker struct {
	chunkSize int
	overlap   int
}

var _ driven.Chunker = (*Chunker)(nil)

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Chunk splits text into consecutive chunks of at most chunkSize
// runes; adjacent chunks share the configured overlap. Every chunk
// gets a fresh ID and carries the source's metadata, which is the
// linkage deletion relies on later.
func (c *Chunker) Chunk(text string, meta domain.ChunkMetadata) []domain.Chunk {
	if text == "" {
		// Empty content produces no chunks
		return nil
	}

	runes := []rune(text)
	textLen := len(runes)

	// Estimate number of chunks
	estimatedChunks := (textLen / (c.chunkSize - c.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	position := 0
	start := 0

	for start < textLen {
		end := start + c.chunkSize
		if end > textLen {
			end = textLen
		}

		chunk := domain.Chunk{
			ID:       uuid.New().String(),
			Text:     string(runes[start:end]),
			Position: position,
			Metadata: meta,
		}

		chunks = append(chunks, chunk)
		position++

		// Move start forward by (chunkSize - overlap)
		start += c.chunkSize - c.overlap

		// Avoid infinite loop for edge cases
		if c.chunkSize <= c.overlap {
			break
		}
	}

	return chunks
}

// ChunkSize returns the configured chunk size in runes.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap in runes.
func (c *Chunker) Overlap() int {
	return c.overlap
}
