package robustness

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func newTestBreaker(threshold int) (*CircuitBreaker, *time.Time) {
	cb := NewCircuitBreaker(threshold, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	cb, _ := newTestBreaker(2)

	require.NoError(t, cb.Allow())
	cb.Record(errBackend, nil)
	assert.Equal(t, StateClosed, cb.GetState())
	cb.Record(errBackend, nil)
	assert.Equal(t, StateOpen, cb.GetState())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestBreakerProbesAfterTimeout(t *testing.T) {
	cb, now := newTestBreaker(1)
	cb.Record(errBackend, nil)

	*now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.GetState())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen, "one probe at a time")

	cb.Record(nil, nil)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.NoError(t, cb.Allow())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	cb, now := newTestBreaker(3)
	for range 3 {
		cb.Record(errBackend, nil)
	}
	*now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Allow())

	cb.Record(errBackend, nil)
	assert.Equal(t, StateOpen, cb.GetState())
	assert.Equal(t, "open", cb.GetState().String())
}

func TestBreakerSkipsUncountedErrors(t *testing.T) {
	cb, _ := newTestBreaker(1)
	cb.Record(errBackend, func(error) bool { return false })
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestNilBreaker(t *testing.T) {
	cb := NewCircuitBreaker(0, time.Minute)
	assert.Nil(t, cb)
	assert.NoError(t, cb.Allow())
	cb.Record(errBackend, nil)
	assert.Equal(t, StateClosed, cb.GetState())
}
