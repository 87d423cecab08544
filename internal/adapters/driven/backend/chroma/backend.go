// Package chroma provides an index backend adapter for a Chroma server.
//
// The adapter speaks Chroma's v1 REST API and embeds client-side: every
// upsert batch is vectorized through the composed embedding service and
// shipped with explicit embeddings, so the server needs no embedding
// function of its own. Chunk tags travel as metadata under the keys
// "source", "product" and "fingerprint"; deletion filters on "source".
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.IndexBackend = (*Backend)(nil)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:8000"
	DefaultTimeout = 60 * time.Second

	// pageSize bounds one snapshot read. Collections can hold far more
	// chunks than a single response should carry.
	pageSize = 1000
)

// Config holds configuration for the Chroma backend.
type Config struct {
	// URL is the Chroma server base URL (default: http://localhost:8000).
	URL string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration
}

// Backend talks to a Chroma server over HTTP.
type Backend struct {
	client   *http.Client
	baseURL  string
	embedder driven.EmbeddingService
}

// collection is the Chroma API collection record.
type collection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// createCollectionRequest creates or fetches a collection by name.
type createCollectionRequest struct {
	Name        string `json:"name"`
	GetOrCreate bool   `json:"get_or_create"`
}

// getRequest reads records from a collection.
type getRequest struct {
	Include []string `json:"include"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

// getResponse is the Chroma API get response.
type getResponse struct {
	IDs       []string         `json:"ids"`
	Metadatas []map[string]any `json:"metadatas"`
}

// upsertRequest writes records into a collection.
type upsertRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
}

// deleteRequest removes records matching a metadata predicate.
type deleteRequest struct {
	Where map[string]any `json:"where"`
}

// apiError is a non-2xx response from the Chroma server.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("chroma error (status %d): %s", e.Status, e.Body)
}

// isNotFound reports whether the server said a collection does not
// exist. Older Chroma builds answer 500 with a ValueError body instead
// of 404.
func isNotFound(err error) bool {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Status == http.StatusNotFound {
		return true
	}
	return apiErr.Status >= 400 && strings.Contains(apiErr.Body, "does not exist")
}

// New creates a Chroma backend. The embedder vectorizes chunks on
// upsert and is owned by the backend: Close closes it.
func New(cfg Config, embedder driven.EmbeddingService) (*Backend, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: chroma backend requires an embedding service", domain.ErrInvalidInput)
	}

	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Backend{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		embedder: embedder,
	}, nil
}

// ListSources returns the distinct sources in the collection mapped to
// their fingerprint. A collection that has never been written yields
// domain.ErrCollectionNotFound.
func (b *Backend) ListSources(ctx context.Context, collectionName string) (map[string]string, error) {
	id, err := b.getCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	sources := make(map[string]string)
	for offset := 0; ; offset += pageSize {
		req := getRequest{
			Include: []string{"metadatas"},
			Limit:   pageSize,
			Offset:  offset,
		}
		var resp getResponse
		if err := b.do(ctx, http.MethodPost, "/api/v1/collections/"+id+"/get", req, &resp); err != nil {
			return nil, fmt.Errorf("reading collection %s: %w", collectionName, err)
		}

		for _, meta := range resp.Metadatas {
			source, ok := meta["source"].(string)
			if !ok || source == "" {
				continue
			}
			fingerprint, _ := meta["fingerprint"].(string)
			sources[source] = fingerprint
		}

		if len(resp.IDs) < pageSize {
			break
		}
	}

	return sources, nil
}

// Upsert embeds the batch and writes it, creating the collection on
// first write.
func (b *Backend) Upsert(ctx context.Context, collectionName string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding batch: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	id, err := b.ensureCollection(ctx, collectionName)
	if err != nil {
		return err
	}

	req := upsertRequest{
		IDs:        make([]string, len(chunks)),
		Embeddings: vectors,
		Documents:  texts,
		Metadatas:  make([]map[string]any, len(chunks)),
	}
	for i, c := range chunks {
		req.IDs[i] = c.ID
		req.Metadatas[i] = chunkMetadata(c)
	}

	if err := b.do(ctx, http.MethodPost, "/api/v1/collections/"+id+"/upsert", req, nil); err != nil {
		return fmt.Errorf("upserting %d chunks: %w", len(chunks), err)
	}
	return nil
}

// DeleteWhere removes every chunk matching the filter. A missing
// collection or an absent source is not an error.
func (b *Backend) DeleteWhere(ctx context.Context, collectionName string, filter domain.ChunkFilter) error {
	if filter.Source == "" {
		// The zero filter matches nothing.
		return nil
	}

	id, err := b.getCollection(ctx, collectionName)
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			return nil
		}
		return err
	}

	req := deleteRequest{
		Where: map[string]any{"source": filter.Source},
	}
	if err := b.do(ctx, http.MethodPost, "/api/v1/collections/"+id+"/delete", req, nil); err != nil {
		return fmt.Errorf("deleting chunks for %s: %w", filter.Source, err)
	}
	return nil
}

// Reset drops the collection and everything in it.
func (b *Backend) Reset(ctx context.Context, collectionName string) error {
	err := b.do(ctx, http.MethodDelete, "/api/v1/collections/"+url.PathEscape(collectionName), nil, nil)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("dropping collection %s: %w", collectionName, err)
	}
	return nil
}

// Ping validates the backend is reachable: the Chroma server and the
// embedding service behind it.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.do(ctx, http.MethodGet, "/api/v1/heartbeat", nil, nil); err != nil {
		return fmt.Errorf("pinging chroma: %w", err)
	}
	if err := b.embedder.Ping(ctx); err != nil {
		return fmt.Errorf("pinging embedder: %w", err)
	}
	return nil
}

// Close closes the embedding service; the HTTP client itself holds no
// resources that need cleanup.
func (b *Backend) Close() error {
	return b.embedder.Close()
}

// getCollection resolves a collection name to its server-side ID.
func (b *Backend) getCollection(ctx context.Context, name string) (string, error) {
	var col collection
	err := b.do(ctx, http.MethodGet, "/api/v1/collections/"+url.PathEscape(name), nil, &col)
	if err != nil {
		if isNotFound(err) {
			return "", domain.ErrCollectionNotFound
		}
		return "", fmt.Errorf("getting collection %s: %w", name, err)
	}
	return col.ID, nil
}

// ensureCollection resolves a collection name to its ID, creating the
// collection when it does not exist yet.
func (b *Backend) ensureCollection(ctx context.Context, name string) (string, error) {
	req := createCollectionRequest{
		Name:        name,
		GetOrCreate: true,
	}
	var col collection
	if err := b.do(ctx, http.MethodPost, "/api/v1/collections", req, &col); err != nil {
		return "", fmt.Errorf("creating collection %s: %w", name, err)
	}
	return col.ID, nil
}

// do issues one JSON request. A nil out discards the response body;
// non-2xx statuses come back as *apiError.
func (b *Backend) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return &apiError{Status: resp.StatusCode, Body: "failed to read response"}
		}
		return &apiError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// chunkMetadata flattens chunk tags into Chroma metadata.
func chunkMetadata(c domain.Chunk) map[string]any {
	m := map[string]any{
		"source":   c.Metadata.Source,
		"product":  c.Metadata.Product,
		"position": c.Position,
	}
	if c.Metadata.Fingerprint != "" {
		m["fingerprint"] = c.Metadata.Fingerprint
	}
	return m
}
