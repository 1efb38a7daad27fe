package ai

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/robustness"
)

type failingClient struct {
	err   error
	calls int
}

func (c *failingClient) Generate(context.Context, string, string) (string, error) {
	c.calls++
	return "", c.err
}

func (c *failingClient) Stream(context.Context, string, string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		c.calls++
		yield("", c.err)
	}
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	inner := &failingClient{err: &APIError{StatusCode: 503, Message: "busy"}}
	c := WithBreaker(inner, robustness.NewCircuitBreaker(2, time.Hour))

	for range 2 {
		_, err := c.Generate(context.Background(), "m", "p")
		require.Error(t, err)
	}
	_, err := Collect(c.Stream(context.Background(), "m", "p"))
	assert.ErrorIs(t, err, robustness.ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls)
}

func TestBreakerIgnoresCallerErrors(t *testing.T) {
	inner := &failingClient{err: ErrMissingAPIKey}
	c := WithBreaker(inner, robustness.NewCircuitBreaker(1, time.Hour))

	for range 3 {
		_, err := c.Generate(context.Background(), "m", "p")
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	}
	assert.Equal(t, 3, inner.calls)
}

func TestWithBreakerNilIsPassThrough(t *testing.T) {
	inner := &failingClient{}
	assert.Same(t, Client(inner), WithBreaker(inner, nil))
}
