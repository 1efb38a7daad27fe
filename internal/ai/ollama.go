package ai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"scribe/internal/logging"
)

// DefaultOllamaURL is used when no base URL is configured.
const DefaultOllamaURL = "http://localhost:11434"

var errStreamStopped = errors.New("stream consumer stopped")

// OllamaClient implements Client for a local or remote Ollama server.
type OllamaClient struct {
	client            *api.Client
	temperature       float32
	maxTokens         int32
	systemInstruction string
	retry             RetryConfig
	logger            *slog.Logger
}

// authTransport adds Authorization header to HTTP requests.
type authTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", "Bearer "+t.apiKey)
	return t.base.RoundTrip(reqClone)
}

// NewOllamaClient creates an Ollama client. The API key is optional.
func NewOllamaClient(opts Options) (*OllamaClient, error) {
	base := opts.BaseURL
	if base == "" {
		base = DefaultOllamaURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	if baseURL.Scheme == "http" {
		host := baseURL.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			logger.Warn("Ollama connection uses unencrypted HTTP to remote host", "host", host)
		}
	}

	timeout := opts.HTTPTimeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	if opts.APIKey != "" {
		httpClient.Transport = &authTransport{base: http.DefaultTransport, apiKey: opts.APIKey}
	}

	return &OllamaClient{
		client:            api.NewClient(baseURL, httpClient),
		temperature:       opts.Temperature,
		maxTokens:         opts.MaxOutputTokens,
		systemInstruction: opts.SystemInstruction,
		retry:             opts.Retry.withDefaults(),
		logger:            logger,
	}, nil
}

func (c *OllamaClient) request(model, prompt string, stream bool) *api.ChatRequest {
	var messages []api.Message
	if c.systemInstruction != "" {
		messages = append(messages, api.Message{Role: "system", Content: c.systemInstruction})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})

	req := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   Ptr(stream),
		Options:  map[string]any{},
	}
	if c.temperature > 0 {
		req.Options["temperature"] = c.temperature
	}
	if c.maxTokens > 0 {
		req.Options["num_predict"] = c.maxTokens
	}
	return req
}

// Generate sends prompt and returns the whole response.
func (c *OllamaClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	req := c.request(model, prompt, false)

	var b strings.Builder
	err := retry(ctx, c.retry, c.logger, "ollama", func() error {
		b.Reset()
		return c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			text, err := ExtractText(PlainText(resp.Message.Content))
			if err != nil {
				return err
			}
			b.WriteString(text)
			return nil
		})
	}, IsRetryableError)
	if err != nil {
		return "", c.wrapError(model, err)
	}
	return b.String(), nil
}

// Stream sends prompt and yields text as it arrives. Requests are retried
// only until the first chunk has been delivered.
func (c *OllamaClient) Stream(ctx context.Context, model, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := c.request(model, prompt, true)

		started := false
		err := retry(ctx, c.retry, c.logger, "ollama", func() error {
			return c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
				if resp.Message.Content == "" {
					return nil
				}
				started = true
				if !yield(resp.Message.Content, nil) {
					return errStreamStopped
				}
				return nil
			})
		}, func(err error) bool {
			return !started && IsRetryableError(err)
		})

		if err != nil && !errors.Is(err, errStreamStopped) {
			yield("", c.wrapError(model, err))
		}
	}
}

// wrapError adds a hint for the common local setup problems.
func (c *OllamaClient) wrapError(model string, err error) error {
	msg := err.Error()

	if strings.Contains(msg, "connection refused") {
		return fmt.Errorf("Ollama server is not running (start it with `ollama serve`): %w", err)
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("model %q is not installed (run `ollama pull %s`): %w", model, model, err)
	}
	if strings.Contains(msg, "model") && strings.Contains(msg, "not found") {
		return fmt.Errorf("model %q is not installed (run `ollama pull %s`): %w", model, model, err)
	}
	return err
}
