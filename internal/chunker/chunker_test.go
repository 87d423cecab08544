package chunker

import (
	"strings"
	"testing"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, c.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		c := New(WithChunkSize(500))
		if c.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", c.chunkSize)
		}
	})

	t.Run("custom overlap", func(t *testing.T) {
		c := New(WithOverlap(50))
		if c.overlap != 50 {
			t.Errorf("expected overlap 50, got %d", c.overlap)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(150))
		if c.overlap >= c.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", c.overlap)
		}
	})
}

func TestChunker_Chunk_EmptyText(t *testing.T) {
	c := New()

	chunks := c.Chunk("", domain.ChunkMetadata{Source: "a.md"})

	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty text, got %d", len(chunks))
	}
}

func TestChunker_Chunk_SmallText(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	meta := domain.ChunkMetadata{Source: "routers/guide.md", Product: "routers"}

	chunks := c.Chunk("This is a small piece of content.", meta)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small text, got %d", len(chunks))
	}
	if chunks[0].Text != "This is a small piece of content." {
		t.Errorf("expected text to match input")
	}
	if chunks[0].Position != 0 {
		t.Errorf("expected position 0, got %d", chunks[0].Position)
	}
	if chunks[0].Metadata != meta {
		t.Errorf("expected metadata %+v, got %+v", meta, chunks[0].Metadata)
	}
}

func TestChunker_Chunk_LargeText(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	meta := domain.ChunkMetadata{Source: "routers/guide.md", Product: "routers"}

	// Create text that spans multiple chunks
	text := strings.Repeat("x", 250) // Should create 3-4 chunks with overlap

	chunks := c.Chunk(text, meta)

	if len(chunks) < 2 {
		t.Errorf("expected multiple chunks, got %d", len(chunks))
	}

	// Verify chunk IDs are unique
	seenIDs := make(map[string]bool)
	for _, chunk := range chunks {
		if seenIDs[chunk.ID] {
			t.Errorf("duplicate chunk ID: %s", chunk.ID)
		}
		seenIDs[chunk.ID] = true
	}

	// Verify positions are sequential
	for i, chunk := range chunks {
		if chunk.Position != i {
			t.Errorf("expected position %d, got %d", i, chunk.Position)
		}
	}

	// Verify every chunk carries the source metadata
	for _, chunk := range chunks {
		if chunk.Metadata != meta {
			t.Errorf("expected metadata %+v, got %+v", meta, chunk.Metadata)
		}
	}

	// Verify first chunk is full size
	if len(chunks[0].Text) != 100 {
		t.Errorf("expected first chunk size 100, got %d", len(chunks[0].Text))
	}
}

func TestChunker_Chunk_ExactChunkSize(t *testing.T) {
	c := New(WithChunkSize(50), WithOverlap(0))

	text := strings.Repeat("a", 100) // Exactly 2 chunks

	chunks := c.Chunk(text, domain.ChunkMetadata{Source: "a.md"})

	if len(chunks) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(chunks))
	}
}

func TestChunker_Chunk_OverlapContent(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(3))

	text := "0123456789ABCDEFGHIJ" // 20 chars

	chunks := c.Chunk(text, domain.ChunkMetadata{Source: "a.md"})

	// With size 10 and overlap 3, step is 7
	// Chunks should be: 0-9, 7-16, 14-19
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks with overlap, got %d", len(chunks))
	}

	if chunks[0].Text != "0123456789" {
		t.Errorf("unexpected first chunk: %q", chunks[0].Text)
	}
	if chunks[1].Text != "789ABCDEFG" {
		t.Errorf("unexpected second chunk: %q", chunks[1].Text)
	}
	if chunks[2].Text != "EFGHIJ" {
		t.Errorf("unexpected third chunk: %q", chunks[2].Text)
	}

	// Consecutive chunks share the overlap region
	if !strings.HasPrefix(chunks[1].Text, chunks[0].Text[7:]) {
		t.Error("expected second chunk to start with first chunk's tail")
	}
}

func TestChunker_Chunk_MultiByteRunes(t *testing.T) {
	c := New(WithChunkSize(4), WithOverlap(1))

	// Each rune is multiple bytes; byte slicing would split them
	text := "héllo wörld"

	chunks := c.Chunk(text, domain.ChunkMetadata{Source: "a.md"})

	for _, chunk := range chunks {
		if !strings.Contains(text, chunk.Text) {
			t.Errorf("chunk %q is not a substring of the input", chunk.Text)
		}
	}

	// First chunk is the first 4 runes, not 4 bytes
	if chunks[0].Text != "héll" {
		t.Errorf("expected rune-based first chunk, got %q", chunks[0].Text)
	}
}

func TestChunker_Chunk_ProductionGeometry(t *testing.T) {
	// Default geometry: 1000-rune chunks, 100-rune overlap, step 900
	c := New()

	text := strings.Repeat("a", 2000)

	chunks := c.Chunk(text, domain.ChunkMetadata{Source: "a.md"})

	// Starts at 0, 900, 1800
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Text) != 1000 {
		t.Errorf("expected first chunk length 1000, got %d", len(chunks[0].Text))
	}
	if len(chunks[2].Text) != 200 {
		t.Errorf("expected final chunk length 200, got %d", len(chunks[2].Text))
	}
}
