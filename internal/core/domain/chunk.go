package domain

// ChunkMetadata carries the structural tags stamped on every chunk.
// The fields are deliberately typed rather than a free-form map so the
// deletion predicate and the upsert metadata can never drift apart on
// a misspelled key.
type ChunkMetadata struct {
	// Source is the original file path of the document the chunk was
	// cut from. It is the sole join key used for deletion and for
	// query-time filtering downstream.
	Source string

	// Product is the corpus subdirectory the source was found under.
	Product string

	// Fingerprint is the hex SHA-256 of the source file's raw bytes.
	// Empty unless modified-content detection is enabled.
	Fingerprint string
}

// Chunk is the atomic unit written to the index backend: a bounded
// slice of one document's text plus its metadata. Chunks are
// write-once: after creation they are only ever inserted or, keyed by
// source, deleted. Only chunks persist across runs; everything else in
// this package is discarded when a run ends.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Text is the chunk's slice of the document text.
	Text string

	// Position is the ordinal position within the source document.
	Position int

	// Metadata tags the chunk with its source and product.
	Metadata ChunkMetadata
}

// ChunkFilter selects chunks by metadata, used for backend deletions.
// The zero value matches nothing.
type ChunkFilter struct {
	// Source matches every chunk whose Metadata.Source equals it.
	Source string
}

// Matches reports whether the chunk satisfies the filter.
func (f ChunkFilter) Matches(c Chunk) bool {
	return f.Source != "" && c.Metadata.Source == f.Source
}
