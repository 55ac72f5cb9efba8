package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"newsrec/internal/domain"
)

func testEmbedder(t *testing.T, handler http.Handler) *OpenAIEmbedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("TEST_EMBED_KEY", "secret")
	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "text-embedding-3-small", srv.URL, 3, zerolog.Nop())
	if err != nil {
		t.Fatalf("construct embedder: %v", err)
	}
	return e
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	e := testEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "text-embedding-3-small" {
			t.Errorf("model = %q", req.Model)
		}

		// Answer out of order; the adapter must restore input order by index.
		resp := embeddingResponse{Data: []embeddingData{
			{Index: 1, Embedding: []float32{4, 5, 6}},
			{Index: 0, Embedding: []float32{1, 2, 3}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))

	vectors, err := e.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("vectors = %d", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][0] != 4 {
		t.Errorf("order not restored: %v", vectors)
	}
}

func TestOpenAIEmbedder_EmptyInput(t *testing.T) {
	e := testEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty input")
	}))

	vectors, err := e.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Errorf("Embed(nil) = %v, %v", vectors, err)
	}
}

func TestOpenAIEmbedder_APIErrorIsServiceError(t *testing.T) {
	e := testEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))

	_, err := e.Embed(context.Background(), []string{"text"})
	var svcErr *domain.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
}

func TestOpenAIEmbedder_ErrorBody(t *testing.T) {
	e := testEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"message": "model not found"}}`))
	}))

	if _, err := e.Embed(context.Background(), []string{"text"}); err == nil {
		t.Fatal("expected error from API error body")
	}
}

func TestOpenAIEmbedder_MissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_MISSING", "")
	if _, err := NewOpenAICompatibleEmbedder("TEST_EMBED_MISSING", "m", "http://x", 3, zerolog.Nop()); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(8)

	a, err := e.Embed(context.Background(), []string{"same text"})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(context.Background(), []string{"same text"})
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatal("mock vectors must be deterministic")
		}
	}
	if len(a[0]) != 8 {
		t.Errorf("dimension = %d, want 8", len(a[0]))
	}
}
