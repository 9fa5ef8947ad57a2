package music

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/services"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Music.Enabled = true
	cfg.Music.BaseURL = server.URL
	return New(&cfg, WithHTTPClient(server.Client()))
}

func TestFetchDownloadsTrackForMood(t *testing.T) {
	var gotPath string
	fetcher := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("mp3-bytes"))
	})

	out := filepath.Join(t.TempDir(), "music.mp3")
	if err := fetcher.Fetch(context.Background(), "calm", out); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotPath != "/calm" {
		t.Fatalf("unexpected request path: %q", gotPath)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read track: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Fatalf("unexpected track contents: %q", data)
	}
}

func TestFetchDefaultsMood(t *testing.T) {
	var gotPath string
	fetcher := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("mp3"))
	})

	if err := fetcher.Fetch(context.Background(), "  ", filepath.Join(t.TempDir(), "music.mp3")); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotPath != "/ambient" {
		t.Fatalf("expected ambient fallback, got %q", gotPath)
	}
}

func TestDisabledFetcher(t *testing.T) {
	cfg := config.Default()
	fetcher := New(&cfg)
	if fetcher.Enabled() {
		t.Fatal("expected fetcher disabled by default")
	}
	err := fetcher.Fetch(context.Background(), "calm", "out.mp3")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestFetchClassifiesMissingTrackAsPermanent(t *testing.T) {
	fetcher := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	err := fetcher.Fetch(context.Background(), "calm", filepath.Join(t.TempDir(), "music.mp3"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}
