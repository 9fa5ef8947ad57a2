package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateGenerators(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSource() error {
	switch c.Source.Backend {
	case BackendLocal:
		return nil
	case BackendSheets:
	default:
		return fmt.Errorf("source.backend must be %q or %q, got %q", BackendSheets, BackendLocal, c.Source.Backend)
	}

	if c.Sheets.SpreadsheetID == "" {
		return errors.New("sheets.spreadsheet_id is required when source.backend is \"sheets\"")
	}
	if c.Sheets.CredentialsFile == "" {
		return errors.New("sheets.credentials_file is required (or set GOOGLE_APPLICATION_CREDENTIALS)")
	}
	if c.Sheets.InputSheet == "" {
		return errors.New("sheets.input_sheet must be set")
	}
	if c.Sheets.ResultsSheet == "" {
		return errors.New("sheets.results_sheet must be set")
	}
	if c.Sheets.ErrorSheet == "" {
		return errors.New("sheets.error_sheet must be set")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelsmith/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set LLM_API_KEY env var or edit %s (create with 'reelsmith config init')", defaultPath)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateGenerators() error {
	if c.TTS.Command == "" {
		return errors.New("tts.command must be set")
	}
	if c.TTS.TimeoutSeconds <= 0 {
		return errors.New("tts.timeout_seconds must be positive")
	}
	if c.Visuals.BaseURL == "" {
		return errors.New("visuals.base_url must be set")
	}
	if c.Visuals.Width <= 0 || c.Visuals.Height <= 0 {
		return errors.New("visuals.width and visuals.height must be positive")
	}
	if c.Music.Enabled && c.Music.BaseURL == "" {
		return errors.New("music.base_url must be set when music.enabled is true")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	switch c.YouTube.PrivacyStatus {
	case "private", "public", "unlisted":
	default:
		return fmt.Errorf("youtube.privacy_status must be private, public, or unlisted, got %q", c.YouTube.PrivacyStatus)
	}
	if c.YouTube.CategoryID == "" {
		return errors.New("youtube.category_id must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxRetries < 0 {
		return errors.New("workflow.max_retries must not be negative")
	}
	if c.Workflow.RetryDelay <= 0 {
		return errors.New("workflow.retry_delay must be positive (seconds)")
	}
	switch c.Workflow.RetryBackoff {
	case "constant", "exponential":
	default:
		return fmt.Errorf("workflow.retry_backoff must be constant or exponential, got %q", c.Workflow.RetryBackoff)
	}
	if c.Workflow.PollInterval <= 0 {
		return errors.New("workflow.poll_interval must be positive (seconds)")
	}
	if c.Workflow.StaleClaimTimeout <= 0 {
		return errors.New("workflow.stale_claim_timeout must be positive (seconds)")
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}
