package docclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/docrelay/docrelay/internal/event"
)

func newTestClient(baseURL, apiKey string) *Client {
	c := New(baseURL, apiKey, time.Second, zerolog.Nop())
	c.retryUnit = time.Millisecond
	return c
}

func TestUpdateTranslatedTitleSendsPatch(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotAuth string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "secret")
	if err := c.UpdateTranslatedTitle(context.Background(), event.DocumentID("42"), "Informe anual"); err != nil {
		t.Fatalf("UpdateTranslatedTitle: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("method = %q, want PATCH", gotMethod)
	}
	if gotPath != "/api/v1/documents/42/translate" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotBody["titleEs"] != "Informe anual" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestUpdateTranslatedTitleRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	if err := c.UpdateTranslatedTitle(context.Background(), event.DocumentID("7"), "Hola"); err != nil {
		t.Fatalf("UpdateTranslatedTitle: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("server called %d times, want 3", got)
	}
}

func TestUpdateTranslatedTitleRetriesRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	c.SetRetryUnit(10 * time.Millisecond)

	started := time.Now()
	err := c.UpdateTranslatedTitle(context.Background(), event.DocumentID("7"), "Hola")
	elapsed := time.Since(started)

	if err == nil {
		t.Fatal("expected error after retry exhaustion")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("server called %d times, want 3", got)
	}
	// Delays double from the unit: 1 + 2 units before the second and third
	// attempts.
	if elapsed < 30*time.Millisecond {
		t.Fatalf("retries finished in %v, want at least 30ms of backoff", elapsed)
	}
}

func TestUpdateTranslatedTitleDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "document not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	err := c.UpdateTranslatedTitle(context.Background(), event.DocumentID("missing"), "Hola")
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("server called %d times, want 1", got)
	}
}

func TestUpdateTranslatedTitleConnectionError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(srv.URL, "")
	if err := c.UpdateTranslatedTitle(context.Background(), event.DocumentID("7"), "Hola"); err == nil {
		t.Fatal("expected error against closed server")
	}
}

func TestUpdateTranslatedTitleUnconfigured(t *testing.T) {
	t.Parallel()

	c := newTestClient("", "")
	if err := c.UpdateTranslatedTitle(context.Background(), event.DocumentID("7"), "Hola"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	if err := c.Probe(context.Background()); err != nil {
		t.Fatalf("Probe should accept any HTTP response, got %v", err)
	}

	srv.Close()
	if err := c.Probe(context.Background()); err == nil {
		t.Fatal("Probe should fail when the service is unreachable")
	}
}
