package docstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fiscalflow/logger"
)

type repoServer struct {
	*httptest.Server

	tokenRequests atomic.Int32
	validToken    string
	documents     []listedDocument
	contents      map[string][]byte
	failuresLeft  atomic.Int32
}

func newRepoServer(t *testing.T) *repoServer {
	t.Helper()

	s := &repoServer{
		validToken: "procurator-token-1",
		contents:   map[string][]byte{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/procurator", func(w http.ResponseWriter, r *http.Request) {
		s.tokenRequests.Add(1)
		if r.Header.Get("X-API-Key") != "firm-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"token": s.validToken, "expires_in": 1200})
	})
	mux.HandleFunc("GET /documents", func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if s.failuresLeft.Load() > 0 {
			s.failuresLeft.Add(-1)
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(s.documents)
	})
	mux.HandleFunc("GET /documents/{id}/content", func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		content, ok := s.contents[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"content": base64.StdEncoding.EncodeToString(content)})
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *repoServer) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+s.validToken
}

func newTestClient(s *repoServer) *HTTPClient {
	return NewHTTPClient(s.URL, "firm-key", NewMemoryTokenCache(), 20*time.Minute, logger.NewNop())
}

func TestHTTPClient_ListDocuments(t *testing.T) {
	server := newRepoServer(t)
	server.documents = []listedDocument{
		{ExternalID: "doc-1", Title: "Extrato do Simples Nacional", Attributes: map[string]string{"source": "portal"}},
		{ExternalID: "doc-2", Title: "DAS"},
	}

	c := newTestClient(server)

	docs, err := c.ListDocuments(context.Background(), "12.345.678/0001-90", ListFilters{Title: "DAS"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ExternalID != "doc-1" || docs[0].Attributes["source"] != "portal" {
		t.Fatalf("unexpected first document: %+v", docs[0])
	}
}

func TestHTTPClient_TokenIsCachedPerClient(t *testing.T) {
	server := newRepoServer(t)
	c := newTestClient(server)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.ListDocuments(ctx, "12.345.678/0001-90", ListFilters{}); err != nil {
			t.Fatalf("list %d: %v", i, err)
		}
	}
	if got := server.tokenRequests.Load(); got != 1 {
		t.Fatalf("expected 1 token request for one client, got %d", got)
	}

	if _, err := c.ListDocuments(ctx, "98.765.432/0001-10", ListFilters{}); err != nil {
		t.Fatalf("list other client: %v", err)
	}
	if got := server.tokenRequests.Load(); got != 2 {
		t.Fatalf("expected a second token request for a second client, got %d", got)
	}
}

func TestHTTPClient_RefreshesTokenOn401(t *testing.T) {
	server := newRepoServer(t)
	c := newTestClient(server)
	ctx := context.Background()

	if _, err := c.ListDocuments(ctx, "12.345.678/0001-90", ListFilters{}); err != nil {
		t.Fatalf("initial list: %v", err)
	}

	// Repository rotates the token; the cached one is now stale.
	server.validToken = "procurator-token-2"

	if _, err := c.ListDocuments(ctx, "12.345.678/0001-90", ListFilters{}); err != nil {
		t.Fatalf("list after rotation: %v", err)
	}
	if got := server.tokenRequests.Load(); got != 2 {
		t.Fatalf("expected exactly one refresh, got %d token requests", got)
	}
}

func TestHTTPClient_RetriesOnceOn5xx(t *testing.T) {
	server := newRepoServer(t)
	c := newTestClient(server)
	ctx := context.Background()

	server.failuresLeft.Store(1)
	if _, err := c.ListDocuments(ctx, "12.345.678/0001-90", ListFilters{}); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}

	server.failuresLeft.Store(2)
	if _, err := c.ListDocuments(ctx, "12.345.678/0001-90", ListFilters{}); err == nil {
		t.Fatal("expected error after two consecutive failures")
	}
}

func TestHTTPClient_FetchContent(t *testing.T) {
	server := newRepoServer(t)
	server.contents["doc-1"] = []byte("%PDF-1.4 fake body")

	c := newTestClient(server)

	raw, err := c.FetchContent(context.Background(), "doc-1", "12.345.678/0001-90")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(raw) != "%PDF-1.4 fake body" {
		t.Fatalf("unexpected content: %q", raw)
	}
}

func TestHTTPClient_FetchContentNotFound(t *testing.T) {
	server := newRepoServer(t)
	c := newTestClient(server)

	_, err := c.FetchContent(context.Background(), "missing", "12.345.678/0001-90")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPClient_MissingAPIKey(t *testing.T) {
	server := newRepoServer(t)
	c := NewHTTPClient(server.URL, "", NewMemoryTokenCache(), 20*time.Minute, logger.NewNop())

	_, err := c.ListDocuments(context.Background(), "12.345.678/0001-90", ListFilters{})
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestHTTPClient_RejectedAPIKey(t *testing.T) {
	server := newRepoServer(t)
	c := NewHTTPClient(server.URL, "wrong-key", NewMemoryTokenCache(), 20*time.Minute, logger.NewNop())

	_, err := c.ListDocuments(context.Background(), "12.345.678/0001-90", ListFilters{})
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}
