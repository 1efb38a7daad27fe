package ai

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"google.golang.org/genai"

	"scribe/internal/logging"
)

// GeminiClient wraps the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	config *genai.GenerateContentConfig
	retry  RetryConfig
	logger *slog.Logger
}

// NewGeminiClient creates a Gemini client for the given options.
func NewGeminiClient(ctx context.Context, opts Options) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientConfig := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  opts.APIKey,
	}
	if opts.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	genConfig := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		genConfig.Temperature = Ptr(opts.Temperature)
	}
	if opts.MaxOutputTokens > 0 {
		genConfig.MaxOutputTokens = opts.MaxOutputTokens
	}
	if opts.SystemInstruction != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(opts.SystemInstruction, genai.RoleUser)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &GeminiClient{
		client: client,
		config: genConfig,
		retry:  opts.Retry.withDefaults(),
		logger: logger,
	}, nil
}

// Generate sends prompt and returns the whole response.
func (c *GeminiClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var resp *genai.GenerateContentResponse
	err := retry(ctx, c.retry, c.logger, "gemini", func() error {
		var err error
		resp, err = c.client.Models.GenerateContent(ctx, model, contents, c.config)
		return err
	}, IsRetryableError)
	if err != nil {
		return "", err
	}

	return ExtractText(geminiPayload(resp))
}

// Stream sends prompt and yields text as it arrives. Requests are retried
// only until the first chunk has been delivered.
func (c *GeminiClient) Stream(ctx context.Context, model, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

		started := false
		stopped := false
		err := retry(ctx, c.retry, c.logger, "gemini", func() error {
			for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, c.config) {
				if err != nil {
					return err
				}
				text, err := ExtractText(geminiPayload(resp))
				if err != nil || text == "" {
					// finish and usage-only chunks carry no text
					continue
				}
				started = true
				if !yield(text, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		}, func(err error) bool {
			return !started && IsRetryableError(err)
		})

		if err != nil && !stopped {
			yield("", err)
		}
	}
}

// geminiPayload converts the first candidate into a ProviderObject,
// dropping thought parts.
func geminiPayload(resp *genai.GenerateContentResponse) Payload {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ProviderObject{}
	}

	var content ContentList
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		content = append(content, ContentPart{Text: part.Text})
	}
	return ProviderObject{Content: content}
}
