package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Source selects the work item backend.
type Source struct {
	Backend string `toml:"backend"`
}

// Sheets contains Google Sheets backend configuration.
type Sheets struct {
	CredentialsFile string `toml:"credentials_file"`
	SpreadsheetID   string `toml:"spreadsheet_id"`
	InputSheet      string `toml:"input_sheet"`
	ResultsSheet    string `toml:"results_sheet"`
	ErrorSheet      string `toml:"error_sheet"`
}

// LLM contains script generation connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TTS contains voiceover synthesis settings.
type TTS struct {
	Command        string `toml:"command"`
	Voice          string `toml:"voice"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Visuals contains scene image generation settings.
type Visuals struct {
	BaseURL        string `toml:"base_url"`
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Music contains background music fetch settings.
type Music struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// YouTube contains publishing settings. OAuth credentials are read from the
// environment (YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, YOUTUBE_REFRESH_TOKEN)
// and never stored in the config file.
type YouTube struct {
	PrivacyStatus     string `toml:"privacy_status"`
	CategoryID        string `toml:"category_id"`
	DefaultLanguage   string `toml:"default_language"`
	NotifySubscribers bool   `toml:"notify_subscribers"`
	MadeForKids       bool   `toml:"made_for_kids"`

	ClientID     string `toml:"-"`
	ClientSecret string `toml:"-"`
	RefreshToken string `toml:"-"`
}

// Workflow contains orchestrator timing and retry configuration.
type Workflow struct {
	MaxRetries        int    `toml:"max_retries"`
	RetryDelay        int    `toml:"retry_delay"`
	RetryBackoff      string `toml:"retry_backoff"`
	PollInterval      int    `toml:"poll_interval"`
	StaleClaimTimeout int    `toml:"stale_claim_timeout"`
	ExitOnInfraError  bool   `toml:"exit_on_infra_error"`
	FailFastPermanent bool   `toml:"fail_fast_permanent"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Items          bool   `toml:"items"`
	Sweeps         bool   `toml:"sweeps"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelsmith.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Source        Source        `toml:"source"`
	Sheets        Sheets        `toml:"sheets"`
	LLM           LLM           `toml:"llm"`
	TTS           TTS           `toml:"tts"`
	Visuals       Visuals       `toml:"visuals"`
	Music         Music         `toml:"music"`
	YouTube       YouTube       `toml:"youtube"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// BackendSheets and BackendLocal are the recognized source.backend values.
const (
	BackendSheets = "sheets"
	BackendLocal  = "local"
)

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and environment credentials resolved.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.WorkDir, &c.Paths.OutputDir, &c.Paths.LogDir} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	if c.Sheets.CredentialsFile != "" {
		expanded, err := expandPath(c.Sheets.CredentialsFile)
		if err != nil {
			return err
		}
		c.Sheets.CredentialsFile = expanded
	} else if env := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); env != "" {
		c.Sheets.CredentialsFile = env
	}

	if strings.TrimSpace(c.LLM.APIKey) == "" {
		c.LLM.APIKey = strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	}

	c.YouTube.ClientID = strings.TrimSpace(os.Getenv("YOUTUBE_CLIENT_ID"))
	c.YouTube.ClientSecret = strings.TrimSpace(os.Getenv("YOUTUBE_CLIENT_SECRET"))
	c.YouTube.RefreshToken = strings.TrimSpace(os.Getenv("YOUTUBE_REFRESH_TOKEN"))

	c.Source.Backend = strings.ToLower(strings.TrimSpace(c.Source.Backend))
	c.Workflow.RetryBackoff = strings.ToLower(strings.TrimSpace(c.Workflow.RetryBackoff))
	return nil
}

// EnsureDirectories creates required directories for operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for composition.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
