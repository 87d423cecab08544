// Package domain defines the core business entities for kbsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CorpusEntry: A document discovered in the corpus tree
//   - Chunk: The atomic unit written to the index backend
//   - DiffResult: The reconciliation between corpus and index state
//   - RunReport: The outcome of one synchronization run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
