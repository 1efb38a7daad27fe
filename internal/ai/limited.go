package ai

import (
	"context"
	"iter"

	"scribe/internal/ratelimit"
)

type limitedClient struct {
	Client
	limiter *ratelimit.Limiter
}

// Limited wraps c so every request first waits for a slot from l.
// A nil limiter returns c unchanged.
func Limited(c Client, l *ratelimit.Limiter) Client {
	if l == nil {
		return c
	}
	return &limitedClient{Client: c, limiter: l}
}

func (c *limitedClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	return c.Client.Generate(ctx, model, prompt)
}

func (c *limitedClient) Stream(ctx context.Context, model, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := c.limiter.Acquire(ctx); err != nil {
			yield("", err)
			return
		}
		for chunk, err := range c.Client.Stream(ctx, model, prompt) {
			if !yield(chunk, err) {
				return
			}
		}
	}
}
