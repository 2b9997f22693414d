package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPStatusSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status/chan-1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"live":true,"viewers":42}`)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer srv.Close()

	source := NewHTTPStatusSource(srv.URL)

	status, err := source.Status(context.Background(), "chan-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.Live {
		t.Error("expected live status")
	}
	if status.Viewers != 42 {
		t.Errorf("expected 42 viewers, got %d", status.Viewers)
	}
}

func TestHTTPStatusSourceEscapesChannelID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		if _, err := w.Write([]byte(`{"live":false,"viewers":0}`)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer srv.Close()

	source := NewHTTPStatusSource(srv.URL)

	if _, err := source.Status(context.Background(), "chan/1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/status/chan%2F1" {
		t.Errorf("expected escaped path, got %q", gotPath)
	}
}

func TestHTTPStatusSourceUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	source := NewHTTPStatusSource(srv.URL)

	if _, err := source.Status(context.Background(), "chan-1"); err == nil {
		t.Fatal("expected error for non-200 upstream response")
	}
}

func TestHTTPStatusSourceBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(`not json`)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer srv.Close()

	source := NewHTTPStatusSource(srv.URL)

	if _, err := source.Status(context.Background(), "chan-1"); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
