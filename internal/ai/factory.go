package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scribe/internal/config"
	"scribe/internal/ratelimit"
	"scribe/internal/robustness"
)

// Options configures a provider client.
type Options struct {
	Provider          string
	APIKey            string
	BaseURL           string
	Temperature       float32
	MaxOutputTokens   int32
	SystemInstruction string
	HTTPTimeout       time.Duration
	Retry             RetryConfig
	RateLimit         ratelimit.Config
	BreakerThreshold  int
	BreakerReset      time.Duration
	Logger            *slog.Logger
}

// OptionsFromConfig builds client options from the application config.
// apiKey overrides the config key when not empty.
func OptionsFromConfig(cfg *config.Config, apiKey string, logger *slog.Logger) Options {
	opts := Options{
		Provider:        cfg.API.Provider,
		APIKey:          cfg.API.APIKey,
		Temperature:     cfg.Model.Temperature,
		MaxOutputTokens: cfg.Model.MaxOutputTokens,
		HTTPTimeout:     cfg.API.Retry.HTTPTimeout,
		Retry: RetryConfig{
			MaxRetries: cfg.API.Retry.MaxRetries,
			RetryDelay: cfg.API.Retry.RetryDelay,
		},
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.API.RateLimit.RequestsPerMinute,
			BurstSize:         cfg.API.RateLimit.BurstSize,
		},
		BreakerThreshold: cfg.API.Breaker.Threshold,
		BreakerReset:     cfg.API.Breaker.ResetTimeout,
		Logger:           logger,
	}
	if apiKey != "" {
		opts.APIKey = apiKey
	}
	if opts.Provider == config.ProviderOllama {
		opts.BaseURL = cfg.API.OllamaBaseURL
		// the settings key is for Gemini; Ollama has its own optional key
		opts.APIKey = cfg.API.OllamaKey
	}
	return opts
}

// NewClient creates the client for opts.Provider, paced by the rate limiter
// and guarded by the circuit breaker.
func NewClient(ctx context.Context, opts Options) (Client, error) {
	c, err := newProviderClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	c = WithBreaker(c, robustness.NewCircuitBreaker(opts.BreakerThreshold, opts.BreakerReset))
	return Limited(c, ratelimit.NewLimiter(opts.RateLimit)), nil
}

func newProviderClient(ctx context.Context, opts Options) (Client, error) {
	switch opts.Provider {
	case "", config.ProviderGemini:
		c, err := NewGeminiClient(ctx, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderOllama:
		c, err := NewOllamaClient(opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Provider)
	}
}
