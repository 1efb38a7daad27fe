package config

import "time"

// Config represents the main application configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Model    ModelConfig    `yaml:"model"`
	Editor   EditorConfig   `yaml:"editor"`
	Tree     TreeConfig     `yaml:"tree"`
	Watcher  WatcherConfig  `yaml:"watcher"`
	UI       UIConfig       `yaml:"ui"`
	Logging  LoggingConfig  `yaml:"logging"`
	Settings SettingsConfig `yaml:"settings"`

	// Runtime version information
	Version string `yaml:"-"`
	// Path the config was loaded from; Save writes back here.
	Path string `yaml:"-"`
}

// Provider names.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// APIConfig holds AI provider settings.
type APIConfig struct {
	// Active provider: gemini or ollama (default: gemini)
	Provider string `yaml:"provider"`

	// Fallback key when the settings file has none. The settings file wins.
	APIKey string `yaml:"api_key,omitempty"`

	// Ollama server URL (default: http://localhost:11434)
	OllamaBaseURL string `yaml:"ollama_base_url,omitempty"`
	OllamaKey     string `yaml:"ollama_key,omitempty"` // Optional, for remote Ollama servers with auth

	Retry     RetryConfig     `yaml:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Breaker   BreakerConfig   `yaml:"circuit_breaker"`
}

// RetryConfig holds retry settings for API calls.
type RetryConfig struct {
	MaxRetries  int           `yaml:"max_retries"`  // Maximum number of retry attempts (default: 3)
	RetryDelay  time.Duration `yaml:"retry_delay"`  // Initial delay between retries (default: 1s)
	HTTPTimeout time.Duration `yaml:"http_timeout"` // HTTP request timeout (default: 120s)
}

// RateLimitConfig paces outgoing requests. Zero requests per minute disables it.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size"`
}

// BreakerConfig stops requests for ResetTimeout after Threshold consecutive
// provider failures. A zero threshold disables it.
type BreakerConfig struct {
	Threshold    int           `yaml:"threshold"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// ModelConfig holds model settings.
type ModelConfig struct {
	Name            string  `yaml:"name"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// EditorConfig holds text file handling settings.
type EditorConfig struct {
	Encoding       string `yaml:"encoding"`        // Encoding tried first when opening files
	LegacyEncoding string `yaml:"legacy_encoding"` // Codepage tried last (default: cp932)
	TabWidth       int    `yaml:"tab_width"`
}

// TreeConfig holds folder tree settings.
type TreeConfig struct {
	Root      string   `yaml:"root"`      // Folder opened at startup (default: working directory)
	Excludes  []string `yaml:"excludes"`  // doublestar globs hidden from the tree
	Gitignore bool     `yaml:"gitignore"` // Hide entries ignored by .gitignore files (default: true)
}

// WatcherConfig holds file watcher settings.
type WatcherConfig struct {
	Enabled    bool `yaml:"enabled"`     // Enable/disable folder watching
	DebounceMs int  `yaml:"debounce_ms"` // Debounce time in milliseconds
	MaxWatches int  `yaml:"max_watches"` // Maximum number of watched directories
}

// UIConfig holds UI-related settings.
type UIConfig struct {
	MarkdownRendering bool   `yaml:"markdown_rendering"`
	MouseMode         string `yaml:"mouse_mode"`  // "enabled" (default) or "disabled"
	ChatWidth         int    `yaml:"chat_width"`  // Chat panel width in percent of the window
	TreeWidth         int    `yaml:"tree_width"`  // Folder tree width in columns
	ChatStyle         string `yaml:"chat_style"`  // glamour style: dark, light, notty
	CodeTheme         string `yaml:"code_theme"`  // chroma style for code blocks
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // Logging level: debug, info, warn, error
	File  bool   `yaml:"file"`  // Write logs to <dir>/scribe.log
	Dir   string `yaml:"dir"`   // Log directory (default: config directory)
}

// SettingsConfig locates the user settings file.
type SettingsConfig struct {
	Path string `yaml:"path"` // default: <config dir>/settings.json
}
