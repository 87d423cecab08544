package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
)

func TestNewConfigStore_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	store, err := NewConfigStore(path)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, path, store.Path())

	// The parent directory is created so the first Save works.
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	store, err := NewConfigStore("")

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(home, ".kbsync", "config.toml"), store.Path())
}

func TestConfigStore_Load_MissingFile(t *testing.T) {
	store, err := NewConfigStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	cfg, err := store.Load()

	require.NoError(t, err)
	assert.False(t, store.Exists())
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestConfigStore_SaveAndLoad_RoundTrip(t *testing.T) {
	store, err := NewConfigStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	cfg := domain.Config{
		RootDir:          "/srv/docs",
		Collection:       "net_docs",
		Extensions:       []string{".md", ".txt"},
		ChunkSize:        800,
		ChunkOverlap:     80,
		BatchSize:        2000,
		DetectModified:   true,
		MaxParallelLoads: 8,
		Backend: domain.BackendSettings{
			Kind: domain.BackendChroma,
			URL:  "http://chroma.internal:8000",
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          domain.ProviderOpenAI,
			Model:             "text-embedding-3-small",
			APIKey:            "sk-test-secret",
			RequestsPerSecond: 2.5,
		},
	}

	require.NoError(t, store.Save(cfg))
	assert.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)

	// Everything round-trips except the API key, which is never
	// written to disk.
	cfg.Embedding.APIKey = ""
	assert.Equal(t, cfg, loaded)
}

func TestConfigStore_Save_OmitsAPIKey(t *testing.T) {
	store, err := NewConfigStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	cfg := domain.DefaultConfig()
	cfg.Embedding.APIKey = "sk-test-secret"
	require.NoError(t, store.Save(cfg))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-test-secret")
}

func TestConfigStore_Load_SparseFile(t *testing.T) {
	store, err := NewConfigStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	sparse := "collection = \"net_docs\"\n\n[backend]\nkind = \"memory\"\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(sparse), 0600))

	cfg, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, "net_docs", cfg.Collection)
	assert.Equal(t, domain.BackendMemory, cfg.Backend.Kind)

	// Unset keys fall back to the defaults.
	def := domain.DefaultConfig()
	assert.Equal(t, def.RootDir, cfg.RootDir)
	assert.Equal(t, def.ChunkSize, cfg.ChunkSize)
	assert.Equal(t, def.ChunkOverlap, cfg.ChunkOverlap)
	assert.Equal(t, def.Extensions, cfg.Extensions)
	assert.Equal(t, def.Embedding.Provider, cfg.Embedding.Provider)
}

func TestConfigStore_Load_ExplicitZeroOverlap(t *testing.T) {
	store, err := NewConfigStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	// The chunk size stays at its default; only the overlap is
	// deliberately disabled.
	require.NoError(t, os.WriteFile(store.Path(), []byte("chunk_overlap = 0\n"), 0600))

	cfg, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig().ChunkSize, cfg.ChunkSize)
	assert.Zero(t, cfg.ChunkOverlap)
}

func TestConfigStore_SaveAndLoad_ZeroOverlapRoundTrip(t *testing.T) {
	store, err := NewConfigStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	cfg := domain.DefaultConfig()
	cfg.ChunkOverlap = 0
	require.NoError(t, store.Save(cfg))

	loaded, err := store.Load()

	require.NoError(t, err)
	assert.Zero(t, loaded.ChunkOverlap)
}

func TestConfigStore_Load_MalformedFile(t *testing.T) {
	store, err := NewConfigStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path(), []byte("collection = [unclosed"), 0600))

	_, err = store.Load()

	require.Error(t, err)
	assert.ErrorContains(t, err, "parsing")
}

func TestConfigStore_Load_InvalidValues(t *testing.T) {
	store, err := NewConfigStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	invalid := "chunk_size = -5\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(invalid), 0600))

	_, err = store.Load()

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigStore_Load_UnknownBackendKind(t *testing.T) {
	store, err := NewConfigStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	invalid := "[backend]\nkind = \"cassandra\"\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(invalid), 0600))

	_, err = store.Load()

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
