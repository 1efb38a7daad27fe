package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"scribe/internal/fileutil"
)

const appName = "scribe"

// Load loads configuration from path (the default location when empty)
// and applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = getConfigPath()
	}
	cfg.Path = path
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			// Config file is optional, don't fail if it doesn't exist
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)

	// The built-in default names a Gemini model.
	if cfg.Model.Name == "" || (cfg.Model.Name == DefaultModel && cfg.API.Provider == ProviderOllama) {
		cfg.Model.Name = cfg.DefaultModelName()
	}
	return cfg, nil
}

// getConfigPath returns the path to the config file.
func getConfigPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Dir returns the configuration directory.
func Dir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", appName)
}

// GetConfigPath returns the default path to the config file.
func GetConfigPath() string {
	return getConfigPath()
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Expand environment variables in the config file
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadFromEnv loads configuration from environment variables.
func loadFromEnv(cfg *Config) {
	// Priority: SCRIBE_API_KEY > GEMINI_API_KEY
	if apiKey := os.Getenv("SCRIBE_API_KEY"); apiKey != "" {
		cfg.API.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		cfg.API.APIKey = apiKey
	}

	if provider := os.Getenv("SCRIBE_PROVIDER"); provider != "" {
		cfg.API.Provider = provider
	}
	if model := os.Getenv("SCRIBE_MODEL"); model != "" {
		cfg.Model.Name = model
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		cfg.API.OllamaBaseURL = host
	}
}

// DefaultModelName returns the default model for the active provider.
func (c *Config) DefaultModelName() string {
	if c.API.Provider == ProviderOllama {
		return DefaultOllamaModel
	}
	return DefaultModel
}

// SettingsPath returns the settings file location.
func (c *Config) SettingsPath() string {
	if c.Settings.Path != "" {
		return fileutil.ExpandHome(c.Settings.Path)
	}
	return filepath.Join(c.baseDir(), "settings.json")
}

// LogDir returns the directory for log files.
func (c *Config) LogDir() string {
	if c.Logging.Dir != "" {
		return fileutil.ExpandHome(c.Logging.Dir)
	}
	return c.baseDir()
}

func (c *Config) baseDir() string {
	if c.Path != "" {
		return filepath.Dir(c.Path)
	}
	if dir := Dir(); dir != "" {
		return dir
	}
	return "."
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.API.Provider {
	case ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.API.Provider)
	}
	if c.Model.Name == "" {
		return ErrMissingModel
	}
	if c.Watcher.DebounceMs < 0 || c.API.Retry.MaxRetries < 0 || c.API.RateLimit.RequestsPerMinute < 0 {
		return ErrNegativeValue
	}
	if c.UI.ChatWidth < 10 || c.UI.ChatWidth > 90 {
		return ErrChatWidth
	}
	for _, enc := range []string{c.Editor.Encoding, c.Editor.LegacyEncoding} {
		if enc != "" && !fileutil.KnownEncoding(enc) {
			return fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
		}
	}
	return nil
}

// Error types for configuration validation.
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

const (
	ErrUnknownProvider ConfigError = "unknown provider: use gemini or ollama"
	ErrMissingModel    ConfigError = "missing model name"
	ErrNegativeValue   ConfigError = "retry and debounce settings must not be negative"
	ErrChatWidth       ConfigError = "ui.chat_width must be between 10 and 90"
	ErrUnknownEncoding ConfigError = "unknown text encoding"
	ErrNoConfigPath    ConfigError = "could not determine config path"
)

// Save saves the configuration to the file it was loaded from.
func (c *Config) Save() error {
	configPath := c.Path
	if configPath == "" {
		configPath = getConfigPath()
	}
	if configPath == "" {
		return ErrNoConfigPath
	}

	// 0700: the file may contain API keys
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fileutil.AtomicWrite(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	c.Path = configPath
	return nil
}
