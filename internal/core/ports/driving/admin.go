package driving

import "context"

// IndexAdmin exposes maintenance operations on the index collection.
type IndexAdmin interface {
	// Sources lists the source identifiers currently indexed, sorted.
	// A collection that does not exist yet lists as empty.
	Sources(ctx context.Context) ([]IndexedSource, error)

	// Reset drops the collection. The next run rebuilds it from
	// scratch.
	Reset(ctx context.Context) error
}

// IndexedSource describes one indexed source.
type IndexedSource struct {
	// Source is the identifier chunks were tagged with.
	Source string `json:"source"`

	// Fingerprinted is true when the backend holds a content
	// fingerprint for the source.
	Fingerprinted bool `json:"fingerprinted"`
}
