// Package music fetches background music tracks over HTTP. The backend is
// expected to serve an audio file for a mood keyword; the feature is
// disabled unless a base URL is configured.
package music

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/services"
	"reelsmith/internal/worklist"
)

// Fetcher downloads one background track per video.
type Fetcher struct {
	enabled    bool
	baseURL    string
	httpClient *http.Client
}

// Option customizes the fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// New constructs a fetcher from configuration.
func New(cfg *config.Config, opts ...Option) *Fetcher {
	timeout := time.Minute
	if cfg.Music.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Music.TimeoutSeconds) * time.Second
	}
	fetcher := &Fetcher{
		enabled:    cfg.Music.Enabled,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.Music.BaseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Enabled reports whether background music is configured.
func (f *Fetcher) Enabled() bool {
	return f.enabled && f.baseURL != ""
}

// Fetch downloads a track matching the mood to outputPath. Calling Fetch on
// a disabled fetcher is an error; callers should check Enabled first.
func (f *Fetcher) Fetch(ctx context.Context, mood, outputPath string) error {
	if !f.Enabled() {
		return services.Wrap(services.ErrConfiguration, worklist.StageMusic, "fetch", "music backend not configured", nil)
	}
	mood = strings.TrimSpace(mood)
	if mood == "" {
		mood = "ambient"
	}

	trackURL := fmt.Sprintf("%s/%s", f.baseURL, url.PathEscape(mood))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, worklist.StageMusic, "fetch", "build request", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return services.Wrap(services.ErrTransient, worklist.StageMusic, "fetch", "music request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrValidation
		}
		return services.Wrap(marker, worklist.StageMusic, "fetch",
			fmt.Sprintf("music request: http %d", resp.StatusCode), nil)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return services.Wrap(services.ErrInfrastructure, worklist.StageMusic, "fetch", "create track file", err)
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return services.Wrap(services.ErrTransient, worklist.StageMusic, "fetch", "music download", err)
	}
	if written == 0 {
		return services.Wrap(services.ErrTransient, worklist.StageMusic, "fetch", "music response was empty", nil)
	}
	return nil
}
