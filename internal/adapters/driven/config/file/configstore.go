package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// fileConfig is the TOML shape of the configuration file. It exists so
// the on-disk key spelling stays stable independently of the domain
// type.
type fileConfig struct {
	RootDir    string   `toml:"root_dir"`
	Collection string   `toml:"collection"`
	Extensions []string `toml:"extensions"`
	ChunkSize  int      `toml:"chunk_size"`
	// ChunkOverlap is a pointer so an explicit 0 (overlap disabled) is
	// distinguishable from the key being absent.
	ChunkOverlap     *int `toml:"chunk_overlap"`
	BatchSize        int  `toml:"batch_size"`
	DetectModified   bool `toml:"detect_modified"`
	MaxParallelLoads int  `toml:"max_parallel_loads"`

	Backend   backendConfig   `toml:"backend"`
	Embedding embeddingConfig `toml:"embedding"`
}

type backendConfig struct {
	Kind    string `toml:"kind"`
	DataDir string `toml:"data_dir,omitempty"`
	URL     string `toml:"url,omitempty"`
}

type embeddingConfig struct {
	Provider          string  `toml:"provider"`
	BaseURL           string  `toml:"base_url,omitempty"`
	Model             string  `toml:"model"`
	RequestsPerSecond float64 `toml:"requests_per_second,omitempty"`
}

// ConfigStore is a file-based implementation of driven.ConfigStore
// using TOML. The file never carries credentials: API keys are read
// from the environment, not persisted.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
}

// NewConfigStore creates a TOML-based config store backed by the file
// at path. An empty path selects the default ~/.kbsync/config.toml.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".kbsync", "config.toml")
	}

	// The directory must exist before the first Save.
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	return &ConfigStore{filePath: path}, nil
}

// Load reads the configuration file. A missing file yields the
// defaults. A present file is normalized and validated after parsing,
// so a sparse file only needs the keys it overrides.
func (s *ConfigStore) Load() (domain.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.DefaultConfig(), nil
		}
		return domain.Config{}, fmt.Errorf("reading %s: %w", s.filePath, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return domain.Config{}, fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	cfg := fc.toDomain()
	cfg.Normalize()
	// Normalize treats a zero overlap as unset; a file that sets
	// chunk_overlap = 0 means no overlap, so the explicit value wins.
	if fc.ChunkOverlap != nil {
		cfg.ChunkOverlap = *fc.ChunkOverlap
	}
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, fmt.Errorf("%s: %w", s.filePath, err)
	}

	return cfg, nil
}

// Save persists the configuration with restricted permissions.
func (s *ConfigStore) Save(cfg domain.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(fromDomain(cfg))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return os.WriteFile(s.filePath, data, 0600)
}

// Exists reports whether a configuration file is present.
func (s *ConfigStore) Exists() bool {
	_, err := os.Stat(s.filePath)
	return err == nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

func (fc fileConfig) toDomain() domain.Config {
	overlap := 0
	if fc.ChunkOverlap != nil {
		overlap = *fc.ChunkOverlap
	}
	return domain.Config{
		RootDir:          fc.RootDir,
		Collection:       fc.Collection,
		Extensions:       fc.Extensions,
		ChunkSize:        fc.ChunkSize,
		ChunkOverlap:     overlap,
		BatchSize:        fc.BatchSize,
		DetectModified:   fc.DetectModified,
		MaxParallelLoads: fc.MaxParallelLoads,
		Backend: domain.BackendSettings{
			Kind:    domain.BackendKind(fc.Backend.Kind),
			DataDir: fc.Backend.DataDir,
			URL:     fc.Backend.URL,
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          domain.EmbeddingProvider(fc.Embedding.Provider),
			BaseURL:           fc.Embedding.BaseURL,
			Model:             fc.Embedding.Model,
			RequestsPerSecond: fc.Embedding.RequestsPerSecond,
		},
	}
}

func fromDomain(cfg domain.Config) fileConfig {
	return fileConfig{
		RootDir:          cfg.RootDir,
		Collection:       cfg.Collection,
		Extensions:       cfg.Extensions,
		ChunkSize:        cfg.ChunkSize,
		ChunkOverlap:     &cfg.ChunkOverlap,
		BatchSize:        cfg.BatchSize,
		DetectModified:   cfg.DetectModified,
		MaxParallelLoads: cfg.MaxParallelLoads,
		Backend: backendConfig{
			Kind:    string(cfg.Backend.Kind),
			DataDir: cfg.Backend.DataDir,
			URL:     cfg.Backend.URL,
		},
		// APIKey is deliberately dropped here; it stays in the
		// environment.
		Embedding: embeddingConfig{
			Provider:          string(cfg.Embedding.Provider),
			BaseURL:           cfg.Embedding.BaseURL,
			Model:             cfg.Embedding.Model,
			RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		},
	}
}
