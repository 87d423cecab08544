package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/vellum-labs/kbsync-cli/internal/adapters/driven/backend/sqlite/migrations"
	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexBackend = (*Store)(nil)

// Store is a SQLite-backed vector index.
type Store struct {
	db       *sql.DB
	path     string
	embedder driven.EmbeddingService
}

// NewStore creates a new SQLite index store at the specified data directory.
// If dataDir is empty, defaults to ~/.kbsync/data/index.db. The embedder
// vectorizes chunks on upsert and is owned by the store: Close closes both.
func NewStore(dataDir string, embedder driven.EmbeddingService) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: sqlite store requires an embedding service", domain.ErrInvalidInput)
	}

	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".kbsync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:       db,
		path:     dbPath,
		embedder: embedder,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection and the embedding service.
func (s *Store) Close() error {
	if err := s.embedder.Close(); err != nil {
		s.db.Close()
		return fmt.Errorf("closing embedder: %w", err)
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping validates the backend is reachable: the database file and the
// embedding service behind it.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	if err := s.embedder.Ping(ctx); err != nil {
		return fmt.Errorf("pinging embedder: %w", err)
	}
	return nil
}

// ListSources returns the distinct sources in the collection mapped to
// their fingerprint. A collection that has never been written yields
// domain.ErrCollectionNotFound.
func (s *Store) ListSources(ctx context.Context, collection string) (map[string]string, error) {
	var count int
	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collections WHERE name = ?", collection)
	if err := row.Scan(&count); err != nil {
		return nil, fmt.Errorf("checking collection: %w", err)
	}
	if count == 0 {
		return nil, domain.ErrCollectionNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source, MAX(fingerprint)
		FROM chunks WHERE collection = ?
		GROUP BY source
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	sources := make(map[string]string)
	for rows.Next() {
		var source, fingerprint string
		if err := rows.Scan(&source, &fingerprint); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources[source] = fingerprint
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}

	return sources, nil
}

// Upsert embeds the batch and writes it in one transaction, creating
// the collection on first write. Chunks with an ID already present
// replace the stored row.
func (s *Store) Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error {
	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO collections (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, collection); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, collection, source, product, fingerprint, position, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection = excluded.collection,
			source = excluded.source,
			product = excluded.product,
			fingerprint = excluded.fingerprint,
			position = excluded.position,
			content = excluded.content,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		blob := float32SliceToBytes(vectors[i])
		if _, err := stmt.ExecContext(ctx, chunk.ID, collection,
			chunk.Metadata.Source, chunk.Metadata.Product, chunk.Metadata.Fingerprint,
			chunk.Position, chunk.Text, blob); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteWhere removes every chunk matching the filter. An absent
// source is not an error.
func (s *Store) DeleteWhere(ctx context.Context, collection string, filter domain.ChunkFilter) error {
	if filter.Source == "" {
		// The zero filter matches nothing.
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE collection = ? AND source = ?",
		collection, filter.Source); err != nil {
		return fmt.Errorf("deleting chunks for %s: %w", filter.Source, err)
	}
	return nil
}

// Reset drops the collection; chunks cascade with it.
func (s *Store) Reset(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM collections WHERE name = ?", collection); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}
	return nil
}

// embedChunks vectorizes the batch text through the embedding service,
// keeping chunk order.
func (s *Store) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding batch: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding batch: got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	return vectors, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Sort and run migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
