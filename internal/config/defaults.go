package config

const (
	defaultWorkDir   = "~/.local/share/reelsmith/work"
	defaultOutputDir = "~/.local/share/reelsmith/videos"
	defaultLogDir    = "~/.local/share/reelsmith/logs"

	defaultInputSheet   = "Video Ideas"
	defaultResultsSheet = "Generated Videos"
	defaultErrorSheet   = "Error Log"

	defaultLLMBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel          = "gpt-4o-mini"
	defaultLLMTimeoutSeconds = 120

	defaultTTSCommand        = "edge-tts"
	defaultTTSVoice          = "en-US-GuyNeural"
	defaultTTSTimeoutSeconds = 300

	defaultVisualsBaseURL = "https://image.pollinations.ai/prompt"
	defaultVisualsWidth   = 1920
	defaultVisualsHeight  = 1080

	defaultPrivacyStatus   = "private"
	defaultCategoryID      = "22" // People & Blogs
	defaultLanguage        = "en"
	defaultMaxRetries      = 3
	defaultRetryDelay      = 5
	defaultRetryBackoff    = "constant"
	defaultPollInterval    = 60
	defaultStaleClaim      = 1800
	defaultNotifyTimeout   = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultFetchTimeoutSec = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Source: Source{
			Backend: BackendLocal,
		},
		Sheets: Sheets{
			InputSheet:   defaultInputSheet,
			ResultsSheet: defaultResultsSheet,
			ErrorSheet:   defaultErrorSheet,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		TTS: TTS{
			Command:        defaultTTSCommand,
			Voice:          defaultTTSVoice,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Visuals: Visuals{
			BaseURL:        defaultVisualsBaseURL,
			Width:          defaultVisualsWidth,
			Height:         defaultVisualsHeight,
			TimeoutSeconds: defaultFetchTimeoutSec,
		},
		Music: Music{
			TimeoutSeconds: defaultFetchTimeoutSec,
		},
		YouTube: YouTube{
			PrivacyStatus:   defaultPrivacyStatus,
			CategoryID:      defaultCategoryID,
			DefaultLanguage: defaultLanguage,
		},
		Workflow: Workflow{
			MaxRetries:        defaultMaxRetries,
			RetryDelay:        defaultRetryDelay,
			RetryBackoff:      defaultRetryBackoff,
			PollInterval:      defaultPollInterval,
			StaleClaimTimeout: defaultStaleClaim,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Items:          true,
			Sweeps:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
