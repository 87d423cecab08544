package chroma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
)

// stubEmbedder is a deterministic embedding service for tests.
type stubEmbedder struct {
	fail bool
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.fail {
		return nil, errors.New("embedder down")
	}
	return []float32{float32(len(text)), 0.25}, nil
}

func (e *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if e.fail {
		return nil, errors.New("embedder down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 0.25}
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int   { return 2 }
func (e *stubEmbedder) ModelName() string { return "stub-model" }
func (e *stubEmbedder) Close() error      { return nil }

func (e *stubEmbedder) Ping(context.Context) error {
	if e.fail {
		return errors.New("embedder down")
	}
	return nil
}

// fakeRecord is one stored chunk in the fake server.
type fakeRecord struct {
	ID       string
	Document string
	Metadata map[string]any
}

// fakeChroma is a minimal in-memory Chroma server for tests.
type fakeChroma struct {
	mu          sync.Mutex
	collections map[string]string       // name -> id
	records     map[string][]fakeRecord // id -> records
	upserts     int
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func newFakeChroma(t *testing.T) (*fakeChroma, *Backend, *stubEmbedder) {
	t.Helper()

	f := &fakeChroma{
		collections: make(map[string]string),
		records:     make(map[string][]fakeRecord),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/heartbeat", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"nanosecond heartbeat": 1})
	})
	mux.HandleFunc("POST /api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		var req createCollectionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		f.mu.Lock()
		defer f.mu.Unlock()
		id, ok := f.collections[req.Name]
		if !ok {
			if !req.GetOrCreate {
				writeJSON(t, w, http.StatusConflict, map[string]string{"error": "collection exists"})
				return
			}
			id = "id-" + req.Name
			f.collections[req.Name] = id
		}
		writeJSON(t, w, http.StatusOK, collection{ID: id, Name: req.Name})
	})
	mux.HandleFunc("GET /api/v1/collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		f.mu.Lock()
		defer f.mu.Unlock()
		id, ok := f.collections[name]
		if !ok {
			writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "collection not found"})
			return
		}
		writeJSON(t, w, http.StatusOK, collection{ID: id, Name: name})
	})
	mux.HandleFunc("DELETE /api/v1/collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		f.mu.Lock()
		defer f.mu.Unlock()
		id, ok := f.collections[name]
		if !ok {
			writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "collection not found"})
			return
		}
		delete(f.collections, name)
		delete(f.records, id)
		writeJSON(t, w, http.StatusOK, map[string]string{})
	})
	mux.HandleFunc("POST /api/v1/collections/{id}/get", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var req getRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		f.mu.Lock()
		defer f.mu.Unlock()
		all := f.records[id]

		start := req.Offset
		if start > len(all) {
			start = len(all)
		}
		end := start + req.Limit
		if end > len(all) {
			end = len(all)
		}

		resp := getResponse{IDs: []string{}, Metadatas: []map[string]any{}}
		for _, rec := range all[start:end] {
			resp.IDs = append(resp.IDs, rec.ID)
			resp.Metadatas = append(resp.Metadatas, rec.Metadata)
		}
		writeJSON(t, w, http.StatusOK, resp)
	})
	mux.HandleFunc("POST /api/v1/collections/{id}/upsert", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var req upsertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Embeddings, len(req.IDs), "every record needs an embedding")
		require.Len(t, req.Documents, len(req.IDs), "every record needs a document")
		require.Len(t, req.Metadatas, len(req.IDs), "every record needs metadata")

		f.mu.Lock()
		defer f.mu.Unlock()
		f.upserts++

		byID := make(map[string]int, len(f.records[id]))
		for i, rec := range f.records[id] {
			byID[rec.ID] = i
		}
		for i, recID := range req.IDs {
			rec := fakeRecord{ID: recID, Document: req.Documents[i], Metadata: req.Metadatas[i]}
			if j, dup := byID[recID]; dup {
				f.records[id][j] = rec
				continue
			}
			f.records[id] = append(f.records[id], rec)
		}
		writeJSON(t, w, http.StatusOK, map[string]bool{"ok": true})
	})
	mux.HandleFunc("POST /api/v1/collections/{id}/delete", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var req deleteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		source, _ := req.Where["source"].(string)

		f.mu.Lock()
		defer f.mu.Unlock()
		kept := f.records[id][:0]
		for _, rec := range f.records[id] {
			if rec.Metadata["source"] != source {
				kept = append(kept, rec)
			}
		}
		f.records[id] = kept
		writeJSON(t, w, http.StatusOK, []string{})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	embedder := &stubEmbedder{}
	backend, err := New(Config{URL: server.URL}, embedder)
	require.NoError(t, err)
	return f, backend, embedder
}

func testChunk(id, source, product, text string) domain.Chunk {
	return domain.Chunk{
		ID:   id,
		Text: text,
		Metadata: domain.ChunkMetadata{
			Source:  source,
			Product: product,
		},
	}
}

func TestNew_Defaults(t *testing.T) {
	backend, err := New(Config{}, &stubEmbedder{})
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, backend.baseURL)
	assert.Equal(t, DefaultTimeout, backend.client.Timeout)
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	backend, err := New(Config{URL: "http://chroma:8000/"}, &stubEmbedder{})
	require.NoError(t, err)
	assert.Equal(t, "http://chroma:8000", backend.baseURL)
}

func TestNew_NilEmbedder(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBackend_ListSources_MissingCollection(t *testing.T) {
	_, backend, _ := newFakeChroma(t)

	_, err := backend.ListSources(context.Background(), "never-written")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestBackend_ListSources_OldServerMissingCollection(t *testing.T) {
	// Older Chroma builds answer 500 with a ValueError body instead of 404.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"ValueError('Collection docs does not exist.')"}`)
	}))
	defer server.Close()

	backend, err := New(Config{URL: server.URL}, &stubEmbedder{})
	require.NoError(t, err)

	_, err = backend.ListSources(context.Background(), "docs")
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestBackend_Upsert_CreatesCollection(t *testing.T) {
	fake, backend, _ := newFakeChroma(t)
	ctx := context.Background()

	err := backend.Upsert(ctx, "docs", []domain.Chunk{
		testChunk("c1", "sdwan/guide.md", "sdwan", "first"),
		testChunk("c2", "meraki/setup.md", "meraki", "third"),
	})
	require.NoError(t, err)
	assert.Contains(t, fake.collections, "docs")
	assert.Equal(t, 1, fake.upserts)

	sources, err := backend.ListSources(ctx, "docs")
	require.NoError(t, err)
	assert.Len(t, sources, 2)
	assert.Contains(t, sources, "sdwan/guide.md")
	assert.Contains(t, sources, "meraki/setup.md")
}

func TestBackend_Upsert_SendsMetadata(t *testing.T) {
	fake, backend, _ := newFakeChroma(t)
	ctx := context.Background()

	chunk := testChunk("c1", "sdwan/guide.md", "sdwan", "hello")
	chunk.Position = 3
	chunk.Metadata.Fingerprint = "deadbeef"
	require.NoError(t, backend.Upsert(ctx, "docs", []domain.Chunk{chunk}))

	records := fake.records["id-docs"]
	require.Len(t, records, 1)
	assert.Equal(t, "hello", records[0].Document)
	assert.Equal(t, "sdwan/guide.md", records[0].Metadata["source"])
	assert.Equal(t, "sdwan", records[0].Metadata["product"])
	assert.Equal(t, "deadbeef", records[0].Metadata["fingerprint"])
	// JSON round-trip turns ints into float64.
	assert.Equal(t, float64(3), records[0].Metadata["position"])
}

func TestBackend_Upsert_OmitsEmptyFingerprint(t *testing.T) {
	fake, backend, _ := newFakeChroma(t)

	require.NoError(t, backend.Upsert(context.Background(), "docs", []domain.Chunk{
		testChunk("c1", "sdwan/guide.md", "sdwan", "hello"),
	}))

	records := fake.records["id-docs"]
	require.Len(t, records, 1)
	assert.NotContains(t, records[0].Metadata, "fingerprint")
}

func TestBackend_Upsert_EmptyBatch(t *testing.T) {
	fake, backend, _ := newFakeChroma(t)

	require.NoError(t, backend.Upsert(context.Background(), "docs", nil))
	assert.Equal(t, 0, fake.upserts)
	assert.NotContains(t, fake.collections, "docs")
}

func TestBackend_Upsert_EmbedderFailure(t *testing.T) {
	fake, backend, embedder := newFakeChroma(t)

	embedder.fail = true
	err := backend.Upsert(context.Background(), "docs", []domain.Chunk{
		testChunk("c1", "sdwan/guide.md", "sdwan", "hello"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding batch")
	assert.Equal(t, 0, fake.upserts, "failed embedding must not reach the server")
	assert.NotContains(t, fake.collections, "docs")
}

func TestBackend_ListSources_Paginates(t *testing.T) {
	fake, backend, _ := newFakeChroma(t)
	ctx := context.Background()

	// Three pages: two full, one partial.
	var chunks []domain.Chunk
	for i := 0; i < pageSize*2+5; i++ {
		source := fmt.Sprintf("prod/doc-%04d.md", i)
		chunks = append(chunks, testChunk(fmt.Sprintf("c-%04d", i), source, "prod", "text"))
	}
	require.NoError(t, backend.Upsert(ctx, "docs", chunks))
	require.Len(t, fake.records["id-docs"], pageSize*2+5)

	sources, err := backend.ListSources(ctx, "docs")
	require.NoError(t, err)
	assert.Len(t, sources, pageSize*2+5)
}

func TestBackend_DeleteWhere(t *testing.T) {
	fake, backend, _ := newFakeChroma(t)
	ctx := context.Background()

	require.NoError(t, backend.Upsert(ctx, "docs", []domain.Chunk{
		testChunk("c1", "sdwan/guide.md", "sdwan", "first"),
		testChunk("c2", "sdwan/guide.md", "sdwan", "second"),
		testChunk("c3", "meraki/setup.md", "meraki", "third"),
	}))

	err := backend.DeleteWhere(ctx, "docs", domain.ChunkFilter{Source: "sdwan/guide.md"})
	require.NoError(t, err)
	require.Len(t, fake.records["id-docs"], 1)
	assert.Equal(t, "c3", fake.records["id-docs"][0].ID)
}

func TestBackend_DeleteWhere_MissingCollection(t *testing.T) {
	_, backend, _ := newFakeChroma(t)

	err := backend.DeleteWhere(context.Background(), "never-written", domain.ChunkFilter{Source: "a.md"})
	assert.NoError(t, err)
}

func TestBackend_DeleteWhere_ZeroFilterMatchesNothing(t *testing.T) {
	fake, backend, _ := newFakeChroma(t)
	ctx := context.Background()

	require.NoError(t, backend.Upsert(ctx, "docs", []domain.Chunk{
		testChunk("c1", "sdwan/guide.md", "sdwan", "first"),
	}))

	require.NoError(t, backend.DeleteWhere(ctx, "docs", domain.ChunkFilter{}))
	assert.Len(t, fake.records["id-docs"], 1)
}

func TestBackend_Reset(t *testing.T) {
	fake, backend, _ := newFakeChroma(t)
	ctx := context.Background()

	require.NoError(t, backend.Upsert(ctx, "docs", []domain.Chunk{
		testChunk("c1", "sdwan/guide.md", "sdwan", "first"),
	}))

	require.NoError(t, backend.Reset(ctx, "docs"))
	assert.NotContains(t, fake.collections, "docs")

	_, err := backend.ListSources(ctx, "docs")
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestBackend_Reset_MissingCollection(t *testing.T) {
	_, backend, _ := newFakeChroma(t)
	assert.NoError(t, backend.Reset(context.Background(), "never-written"))
}

func TestBackend_Ping(t *testing.T) {
	_, backend, embedder := newFakeChroma(t)

	assert.NoError(t, backend.Ping(context.Background()))

	embedder.fail = true
	err := backend.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinging embedder")
}

func TestBackend_Ping_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	server.Close()

	backend, err := New(Config{URL: server.URL}, &stubEmbedder{})
	require.NoError(t, err)

	err = backend.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinging chroma")
}
