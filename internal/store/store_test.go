package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type counterDoc struct {
	Count int    `json:"query_count"`
	Reset string `json:"last_reset"`
}

func TestMemoryStoreEmpty(t *testing.T) {
	s, err := NewMemoryStore(nil)
	if err != nil {
		t.Fatal(err)
	}
	var doc counterDoc
	if err := s.Latest(context.Background(), &doc); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreReplace(t *testing.T) {
	s, err := NewMemoryStore(counterDoc{Count: 3, Reset: "2025-01-01"})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	var doc counterDoc
	if err := s.Latest(ctx, &doc); err != nil {
		t.Fatalf("latest: %v", err)
	}
	doc.Count++
	if err := s.Replace(ctx, doc); err != nil {
		t.Fatalf("replace: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	doc.Count = 100

	var again counterDoc
	if err := s.Latest(ctx, &again); err != nil {
		t.Fatal(err)
	}
	if again.Count != 4 || again.Reset != "2025-01-01" {
		t.Fatalf("unexpected document %+v", again)
	}
	if s.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", s.Writes())
	}
}

func TestJSONBinStore(t *testing.T) {
	stored := json.RawMessage(`{"query_count":7,"last_reset":"2025-03-01"}`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Master-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/b/bin1/latest":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"record":`+string(stored)+`,"metadata":{"id":"bin1"}}`)
		case r.Method == http.MethodPut && r.URL.Path == "/b/bin1":
			body, _ := io.ReadAll(r.Body)
			stored = body
			io.WriteString(w, `{"record":`+string(body)+`}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	s := NewJSONBinStore(srv.Client(), srv.URL, "bin1", "secret")

	var doc counterDoc
	if err := s.Latest(ctx, &doc); err != nil {
		t.Fatalf("latest: %v", err)
	}
	if doc.Count != 7 {
		t.Fatalf("expected count 7, got %d", doc.Count)
	}

	doc.Count = 0
	doc.Reset = "2025-03-02"
	if err := s.Replace(ctx, doc); err != nil {
		t.Fatalf("replace: %v", err)
	}
	var again counterDoc
	if err := s.Latest(ctx, &again); err != nil {
		t.Fatal(err)
	}
	if again != doc {
		t.Fatalf("expected %+v, got %+v", doc, again)
	}

	missing := NewJSONBinStore(srv.Client(), srv.URL, "nope", "secret")
	if err := missing.Latest(ctx, &doc); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
