package domain

import (
	"fmt"
	"strings"
)

// BackendKind identifies which index backend implementation to use.
type BackendKind string

const (
	BackendSQLite BackendKind = "sqlite"
	BackendChroma BackendKind = "chroma"
	BackendMemory BackendKind = "memory"
)

// IsValid checks if the backend kind is a known value.
func (k BackendKind) IsValid() bool {
	switch k {
	case BackendSQLite, BackendChroma, BackendMemory:
		return true
	}
	return false
}

// EmbeddingProvider identifies which embedding service to use.
type EmbeddingProvider string

const (
	ProviderOllama EmbeddingProvider = "ollama"
	ProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid checks if the embedding provider is a known value.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case ProviderOllama, ProviderOpenAI:
		return true
	}
	return false
}

// BackendSettings configures the index backend.
type BackendSettings struct {
	Kind BackendKind

	// DataDir holds the sqlite database file. Empty means the
	// platform default under the user's home directory.
	DataDir string

	// URL is the chroma server address. Ignored by other kinds.
	URL string
}

// EmbeddingSettings configures the embedding service used by the
// index backend.
type EmbeddingSettings struct {
	Provider EmbeddingProvider

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Model names the embedding model.
	Model string

	// APIKey authenticates hosted providers. Usually supplied via
	// environment rather than the config file.
	APIKey string

	// RequestsPerSecond throttles embedding calls. Zero disables
	// throttling.
	RequestsPerSecond float64
}

// Config holds every knob a sync run reads. Zero values are not
// usable; start from DefaultConfig and override.
type Config struct {
	// RootDir is the corpus root. Immediate child directories are
	// product categories.
	RootDir string

	// Collection names the index collection to synchronize.
	Collection string

	// Extensions lists recognized file extensions, dot included.
	Extensions []string

	// ChunkSize and ChunkOverlap control text splitting, in runes.
	ChunkSize    int
	ChunkOverlap int

	// BatchSize caps how many chunks a single upsert carries.
	BatchSize int

	// DetectModified enables content fingerprinting so edited files
	// are re-indexed in place. Off by default: presence-only diffing
	// never re-embeds a file whose path is unchanged.
	DetectModified bool

	// MaxParallelLoads bounds concurrent source loading.
	MaxParallelLoads int

	Backend   BackendSettings
	Embedding EmbeddingSettings
}

// DefaultConfig returns the built-in configuration: a local sqlite
// index over a ./knowledge_docs corpus, embedded via a local ollama
// instance.
func DefaultConfig() Config {
	return Config{
		RootDir:          "knowledge_docs",
		Collection:       "product_docs",
		Extensions:       []string{".md", ".pdf"},
		ChunkSize:        1000,
		ChunkOverlap:     100,
		BatchSize:        5000,
		DetectModified:   false,
		MaxParallelLoads: 4,
		Backend: BackendSettings{
			Kind: BackendSQLite,
		},
		Embedding: EmbeddingSettings{
			Provider: ProviderOllama,
			Model:    "nomic-embed-text",
		},
	}
}

// Normalize fills unset fields from defaults and canonicalizes
// extension spelling. Call before Validate.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.RootDir == "" {
		c.RootDir = def.RootDir
	}
	if c.Collection == "" {
		c.Collection = def.Collection
	}
	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), def.Extensions...)
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.ChunkOverlap == 0 && c.ChunkSize == def.ChunkSize {
		c.ChunkOverlap = def.ChunkOverlap
	}
	if c.BatchSize == 0 {
		c.BatchSize = def.BatchSize
	}
	if c.MaxParallelLoads == 0 {
		c.MaxParallelLoads = def.MaxParallelLoads
	}
	if c.Backend.Kind == "" {
		c.Backend.Kind = def.Backend.Kind
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = def.Embedding.Provider
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = def.Embedding.Model
	}

	for i, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Extensions[i] = ext
	}
}

// Validate checks the configuration for values no run could honor.
func (c Config) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("%w: root directory is required", ErrInvalidInput)
	}
	if c.Collection == "" {
		return fmt.Errorf("%w: collection name is required", ErrInvalidInput)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: at least one extension is required", ErrInvalidInput)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", ErrInvalidInput)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidInput)
	}
	if c.MaxParallelLoads <= 0 {
		return fmt.Errorf("%w: max parallel loads must be positive", ErrInvalidInput)
	}
	if !c.Backend.Kind.IsValid() {
		return fmt.Errorf("%w: unknown backend kind %q", ErrInvalidInput, c.Backend.Kind)
	}
	if c.Backend.Kind == BackendChroma && c.Backend.URL == "" {
		return fmt.Errorf("%w: chroma backend requires a url", ErrInvalidInput)
	}
	if !c.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, c.Embedding.Provider)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests per second cannot be negative", ErrInvalidInput)
	}
	return nil
}
