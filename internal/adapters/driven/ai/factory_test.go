package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	t.Run("creates ollama service", func(t *testing.T) {
		svc, err := CreateEmbeddingService(domain.EmbeddingSettings{
			Provider: domain.ProviderOllama,
			Model:    "nomic-embed-text",
		})

		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.Equal(t, "nomic-embed-text", svc.ModelName())
	})

	t.Run("creates openai service", func(t *testing.T) {
		svc, err := CreateEmbeddingService(domain.EmbeddingSettings{
			Provider: domain.ProviderOpenAI,
			APIKey:   "test-key",
		})

		require.NoError(t, err)
		require.NotNil(t, svc)
	})

	t.Run("openai without key fails", func(t *testing.T) {
		_, err := CreateEmbeddingService(domain.EmbeddingSettings{
			Provider: domain.ProviderOpenAI,
		})

		assert.Error(t, err)
	})

	t.Run("unknown provider fails", func(t *testing.T) {
		_, err := CreateEmbeddingService(domain.EmbeddingSettings{
			Provider: "cohere",
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCreateAndValidateEmbeddingService_UnreachableBackend(t *testing.T) {
	_, err := CreateAndValidateEmbeddingService(domain.EmbeddingSettings{
		Provider: domain.ProviderOllama,
		BaseURL:  "http://127.0.0.1:1",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
