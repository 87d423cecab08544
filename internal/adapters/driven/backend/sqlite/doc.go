// Package sqlite provides a SQLite-based implementation of the index backend.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. One database file holds
// any number of collections; each chunk row carries its text, its source and
// product tags, and its embedding as a little-endian float32 blob.
//
// Embeddings are computed client-side: the store composes a
// driven.EmbeddingService and vectorizes every batch it is handed before
// writing.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.kbsync/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
