package ai

import (
	"context"
	"fmt"
	"iter"

	"scribe/internal/robustness"
)

type breakerClient struct {
	Client
	breaker *robustness.CircuitBreaker
}

// WithBreaker wraps c so requests fail fast while cb is open. Only errors
// IsRetryableError accepts count as backend failures.
func WithBreaker(c Client, cb *robustness.CircuitBreaker) Client {
	if cb == nil {
		return c
	}
	return &breakerClient{Client: c, breaker: cb}
}

func (c *breakerClient) allow() error {
	if err := c.breaker.Allow(); err != nil {
		return fmt.Errorf("provider failing repeatedly, try again later: %w", err)
	}
	return nil
}

func (c *breakerClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	if err := c.allow(); err != nil {
		return "", err
	}
	out, err := c.Client.Generate(ctx, model, prompt)
	c.breaker.Record(err, IsRetryableError)
	return out, err
}

func (c *breakerClient) Stream(ctx context.Context, model, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := c.allow(); err != nil {
			yield("", err)
			return
		}
		var failure error
		defer func() { c.breaker.Record(failure, IsRetryableError) }()
		for chunk, err := range c.Client.Stream(ctx, model, prompt) {
			if err != nil {
				failure = err
			}
			if !yield(chunk, err) {
				return
			}
		}
	}
}
