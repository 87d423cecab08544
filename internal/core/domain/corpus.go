package domain

// CorpusEntry is a single document discovered in the corpus tree.
// It lives only for the duration of one synchronization run.
type CorpusEntry struct {
	// Path is the file's location relative to the corpus root,
	// slash-separated regardless of platform. It is the stable source
	// identifier that joins corpus state with backend state across
	// runs, so it must not depend on where the corpus happens to be
	// mounted.
	Path string

	// AbsPath is the absolute filesystem location, used for loading.
	AbsPath string

	// Product is the first-level subdirectory of the corpus root the
	// file was found under. Files directly under the root carry no
	// product and are never emitted by the scanner.
	Product string

	// Fingerprint is the hex SHA-256 of the file's raw bytes. Empty
	// unless the scanner runs with modified-content detection.
	Fingerprint string
}

// ChangeType represents the kind of filesystem change seen by a watcher.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates changed content.
	ChangeUpdated

	// ChangeDeleted indicates a deleted or renamed-away path.
	ChangeDeleted
)

// String names the change kind for logs.
func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	}
	return "unknown"
}

// CorpusEvent is a change notification from the corpus watcher.
// Events only signal that the corpus drifted; the next run's diff
// decides what actually needs doing.
type CorpusEvent struct {
	// Path is the affected file or directory.
	Path string

	// Type is the kind of change.
	Type ChangeType
}
