// Package visuals generates scene images through a pollinations-style HTTP
// image endpoint: the prompt rides in the URL path and the response body is
// the image itself.
package visuals

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

// Fetcher downloads one generated image per scene prompt.
type Fetcher struct {
	baseURL    string
	width      int
	height     int
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
	if cfg.Visuals.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Visuals.TimeoutSeconds) * time.Second
	}
	fetcher := &Fetcher{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.Visuals.BaseURL), "/"),
		width:      cfg.Visuals.Width,
		height:     cfg.Visuals.Height,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// imageURL builds the request URL for one prompt. The seed is derived from
// the scene index so reruns fetch the same image.
func (f *Fetcher) imageURL(prompt string, sceneIndex int) string {
	return fmt.Sprintf("%s/%s?width=%d&height=%d&nologo=true&seed=%d",
		f.baseURL, url.PathEscape(prompt), f.width, f.height, sceneIndex*42+7)
}

// Fetch generates an image for the prompt, styled consistently with the
// rest of the video, and writes it to outputPath.
func (f *Fetcher) Fetch(ctx context.Context, prompt, style string, sceneIndex int, outputPath string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return services.Wrap(services.ErrValidation, worklist.StageScenes, "fetch",
			fmt.Sprintf("scene %d has no visual prompt", sceneIndex), nil)
	}
	if style = strings.TrimSpace(style); style != "" {
		prompt = prompt + ", " + style
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.imageURL(prompt, sceneIndex), nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, worklist.StageScenes, "fetch", "build request", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return services.Wrap(services.ErrTransient, worklist.StageScenes, "fetch",
			fmt.Sprintf("scene %d image request", sceneIndex), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrValidation
		}
		return services.Wrap(marker, worklist.StageScenes, "fetch",
			fmt.Sprintf("scene %d image request: http %d", sceneIndex, resp.StatusCode), nil)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return services.Wrap(services.ErrInfrastructure, worklist.StageScenes, "fetch", "create image file", err)
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return services.Wrap(services.ErrTransient, worklist.StageScenes, "fetch",
			fmt.Sprintf("scene %d image download", sceneIndex), err)
	}
	if written == 0 {
		return services.Wrap(services.ErrTransient, worklist.StageScenes, "fetch",
			fmt.Sprintf("scene %d image response was empty", sceneIndex), nil)
	}
	return nil
}
