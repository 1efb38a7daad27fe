package controller

import (
	"context"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"scribe/internal/ai"
	"scribe/internal/apperr"
	"scribe/internal/logging"
)

// ClientBuilder creates an AI client from an API key.
type ClientBuilder func(ctx context.Context, apiKey string) (ai.Client, error)

// AIConfig configures an AIController.
type AIConfig struct {
	// Client is used as is and never reset. When nil, Builder creates a
	// client on first use from the key returned by APIKey.
	Client  ai.Client
	Builder ClientBuilder
	APIKey  func() string
	Model   string
	Logger  *slog.Logger
}

// AIController sends prompts to the AI client and normalizes its failures
// into AI-integration errors.
type AIController struct {
	builder ClientBuilder
	apiKey  func() string
	logger  *slog.Logger

	mu       sync.Mutex
	client   ai.Client
	injected bool
	model    string
}

// NewAIController creates an AI controller.
func NewAIController(cfg AIConfig) *AIController {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	apiKey := cfg.APIKey
	if apiKey == nil {
		apiKey = func() string { return "" }
	}
	return &AIController{
		builder:  cfg.Builder,
		apiKey:   apiKey,
		logger:   logger,
		client:   cfg.Client,
		injected: cfg.Client != nil,
		model:    cfg.Model,
	}
}

// Model returns the model name sent with requests.
func (c *AIController) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetModel changes the model name.
func (c *AIController) SetModel(model string) {
	c.mu.Lock()
	c.model = model
	c.mu.Unlock()
}

// ResetClient drops a lazily built client so the next request picks up new
// settings. An injected client is kept.
func (c *AIController) ResetClient() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.injected {
		return
	}
	c.client = nil
	c.logger.Debug("AI client reset")
}

// GenerateCode returns the response to a code generation prompt.
func (c *AIController) GenerateCode(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, "code generation")
}

// HandleChatSubmit returns the response to a chat message.
func (c *AIController) HandleChatSubmit(ctx context.Context, message string) (string, error) {
	return c.generate(ctx, message, "chat completion")
}

// StreamChat starts a streamed chat response. Empty chunks are dropped and a
// failing stream ends with an AI-integration error.
func (c *AIController) StreamChat(ctx context.Context, prompt string) (iter.Seq2[string, error], error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperr.Validation("prompt is empty")
	}
	client, model, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info("chat stream started", "model", model)
	return func(yield func(string, error) bool) {
		for chunk, err := range client.Stream(ctx, model, prompt) {
			if err != nil {
				c.logger.Error("chat stream failed", "error", err)
				yield("", apperr.AI("chat stream failed", err))
				return
			}
			if chunk == "" {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
		c.logger.Info("chat stream finished")
	}, nil
}

func (c *AIController) generate(ctx context.Context, prompt, what string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apperr.Validation("prompt is empty")
	}
	client, model, err := c.acquire(ctx)
	if err != nil {
		return "", err
	}

	c.logger.Info("sending request", "kind", what, "model", model)
	result, err := client.Generate(ctx, model, prompt)
	if err != nil {
		c.logger.Error("request failed", "kind", what, "error", err)
		return "", apperr.AI(what+" failed", err)
	}
	c.logger.Info("response received", "kind", what, "chars", len(result))
	return result, nil
}

func (c *AIController) acquire(ctx context.Context) (ai.Client, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, c.model, nil
	}
	if c.builder == nil {
		return nil, "", apperr.AI("no AI client is configured", nil)
	}
	client, err := c.builder(ctx, strings.TrimSpace(c.apiKey()))
	if err != nil {
		return nil, "", apperr.AI("failed to create AI client", err)
	}
	c.client = client
	c.logger.Debug("AI client created")
	return client, c.model, nil
}
