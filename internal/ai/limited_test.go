package ai

import (
	"context"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/config"
	"scribe/internal/ratelimit"
)

type countingClient struct{ calls int }

func (c *countingClient) Generate(context.Context, string, string) (string, error) {
	c.calls++
	return "ok", nil
}

func (c *countingClient) Stream(context.Context, string, string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		c.calls++
		if yield("a", nil) {
			yield("b", nil)
		}
	}
}

func TestLimitedWithoutLimiterIsPassThrough(t *testing.T) {
	inner := &countingClient{}
	assert.Same(t, Client(inner), Limited(inner, nil))
}

func TestLimitedBlocksWhenOutOfSlots(t *testing.T) {
	inner := &countingClient{}
	c := Limited(inner, ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 1, BurstSize: 1}))

	out, err := c.Generate(context.Background(), "m", "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Generate(ctx, "m", "p")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = Collect(c.Stream(ctx, "m", "p"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestLimitedStreamPassesChunks(t *testing.T) {
	inner := &countingClient{}
	c := Limited(inner, ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 60, BurstSize: 2}))

	out, err := Collect(c.Stream(context.Background(), "m", "p"))
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

func TestOptionsFromConfigCarriesRateLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.API.RateLimit.RequestsPerMinute = 12

	opts := OptionsFromConfig(cfg, "", nil)
	assert.Equal(t, 12, opts.RateLimit.RequestsPerMinute)
	assert.Equal(t, cfg.API.RateLimit.BurstSize, opts.RateLimit.BurstSize)
}
