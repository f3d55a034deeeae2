package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, baseURL string) *HTTPClient {
	t.Helper()
	client, err := NewHTTPClient(HTTPClientConfig{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		MaxRetries: 1,
	})
	if err != nil {
		t.Fatalf("unexpected client error: %v", err)
	}
	return client
}

func TestInsertPostsFieldsAndDecodesDocument(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAPIKey = r.Header.Get("X-Api-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"document":{"id":"doc-1","fields":{"title":"su"}}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	doc, err := client.Insert(context.Background(), "notes", map[string]any{"title": "su"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID != "doc-1" {
		t.Fatalf("unexpected document id: %q", doc.ID)
	}
	if gotPath != "POST /v1/collections/notes/documents" {
		t.Fatalf("unexpected request: %q", gotPath)
	}
	if gotAPIKey != "test-key" {
		t.Fatalf("expected api key header, got %q", gotAPIKey)
	}
	fields, ok := gotBody["fields"].(map[string]any)
	if !ok || fields["title"] != "su" {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
}

func TestQuerySendsFiltersAsParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("dietitianId") != "user-7" {
			t.Errorf("expected tenant filter, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"documents":[{"id":"doc-1","fields":{"name":"çorba"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	docs, err := client.Query(context.Background(), "recipes", map[string]string{"dietitianId": "user-7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].StringField("name") != "çorba" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}

func TestTransportFailureSurfacesAsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Query(context.Background(), "notes", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Errorf("response writer does not support hijacking")
				return
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Errorf("hijack failed: %v", err)
				return
			}
			conn.Close()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"documents":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.Query(context.Background(), "notes", nil); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected two attempts, got %d", attempts)
	}
}

func TestRejectedCredentialsMapToUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Delete(context.Background(), "notes", "doc-1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for rejected credentials, got %v", err)
	}
}

func TestHTTPErrorStatusIsNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Update(context.Background(), "notes", "doc-1", map[string]any{"title": "x"})
	if err == nil {
		t.Fatalf("expected an error for 422")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Fatalf("a validation status is not unavailability: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestDisabledClientAlwaysUnavailable(t *testing.T) {
	client := Disabled()
	if _, err := client.Query(context.Background(), "notes", nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := client.Delete(context.Background(), "notes", "doc-1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
