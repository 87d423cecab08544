package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
)

// newTestServer returns an httptest server that answers the embeddings
// and tags endpoints like a healthy Ollama instance.
func newTestServer(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embeddings":
			if requests != nil {
				requests.Add(1)
			}

			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.NotEmpty(t, req.Model)

			// Echo a tiny deterministic vector derived from the prompt
			// length so batch ordering is checkable.
			resp := embedResponse{Embedding: []float64{float64(len(req.Prompt)), 0.5}}
			require.NoError(t, json.NewEncoder(w).Encode(resp))

		case "/api/tags":
			w.WriteHeader(http.StatusOK)

		default:
			http.NotFound(w, r)
		}
	}))
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestNewEmbeddingService_Custom(t *testing.T) {
	svc := NewEmbeddingService(Config{
		BaseURL:    "http://example:11434",
		Model:      "all-minilm",
		Dimensions: 384,
	})

	assert.Equal(t, "all-minilm", svc.ModelName())
	assert.Equal(t, 384, svc.Dimensions())
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.EmbeddingService = (*EmbeddingService)(nil)
}

func TestEmbed(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	result, err := svc.Embed(context.Background(), "hello")

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, float32(5), result[0])
}

func TestEmbed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	_, err := svc.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestEmbedBatch(t *testing.T) {
	t.Run("keeps input order", func(t *testing.T) {
		var requests atomic.Int64
		server := newTestServer(t, &requests)
		defer server.Close()

		svc := NewEmbeddingService(Config{BaseURL: server.URL})

		texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
		results, err := svc.EmbedBatch(context.Background(), texts)

		require.NoError(t, err)
		require.Len(t, results, len(texts))
		for i, text := range texts {
			assert.Equal(t, float32(len(text)), results[i][0], "result %d out of order", i)
		}

		// One request per text: no native batch endpoint.
		assert.Equal(t, int64(len(texts)), requests.Load())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		svc := NewEmbeddingService(Config{BaseURL: "http://never-dialed"})

		results, err := svc.EmbedBatch(context.Background(), nil)

		require.NoError(t, err)
		assert.Nil(t, results)
	})

	t.Run("one failure fails the batch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		svc := NewEmbeddingService(Config{BaseURL: server.URL})

		_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})

		assert.Error(t, err)
	})
}

func TestPing(t *testing.T) {
	t.Run("healthy server", func(t *testing.T) {
		server := newTestServer(t, nil)
		defer server.Close()

		svc := NewEmbeddingService(Config{BaseURL: server.URL})

		assert.NoError(t, svc.Ping(context.Background()))
	})

	t.Run("unreachable server", func(t *testing.T) {
		svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

		assert.Error(t, svc.Ping(context.Background()))
	})
}

func TestClose(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.NoError(t, svc.Close())
}
