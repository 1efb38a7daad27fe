package config

import "time"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultOllamaModel is used for the ollama provider when no model is configured.
const DefaultOllamaModel = "llama3.2"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Provider:      ProviderGemini,
			OllamaBaseURL: "http://localhost:11434",
			Retry: RetryConfig{
				MaxRetries:  3,
				RetryDelay:  1 * time.Second,
				HTTPTimeout: 120 * time.Second,
			},
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 30,
				BurstSize:         5,
			},
			Breaker: BreakerConfig{
				Threshold:    5,
				ResetTimeout: 30 * time.Second,
			},
		},
		Model: ModelConfig{
			Name:            DefaultModel,
			Temperature:     0.7,
			MaxOutputTokens: 8192,
		},
		Editor: EditorConfig{
			Encoding:       "utf-8",
			LegacyEncoding: "cp932",
			TabWidth:       4,
		},
		Tree: TreeConfig{
			Excludes:  []string{".git", "node_modules", "__pycache__"},
			Gitignore: true,
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 300,
			MaxWatches: 1000,
		},
		UI: UIConfig{
			MarkdownRendering: true,
			MouseMode:         "enabled",
			ChatWidth:         35,
			TreeWidth:         28,
			ChatStyle:         "dark",
			CodeTheme:         "monokai",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
