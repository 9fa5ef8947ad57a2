// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It uses the local backend and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Source.Backend = config.BackendLocal
	cfg.LLM.APIKey = "test"
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.OutputDir = filepath.Join(base, "videos")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Workflow.RetryDelay = 1
	cfg.Workflow.PollInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithSheetsBackend points the test config at the sheets backend.
func WithSheetsBackend(spreadsheetID, credentialsFile string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Source.Backend = config.BackendSheets
		cfg.Sheets.SpreadsheetID = spreadsheetID
		cfg.Sheets.CredentialsFile = credentialsFile
	}
}

// WithMaxRetries overrides the retry budget on the test config.
func WithMaxRetries(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.MaxRetries = n
	}
}
