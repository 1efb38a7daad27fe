package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaServer(t *testing.T, chunks []string, failures int32) (*httptest.Server, *api.ChatRequest, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	got := &api.ChatRequest{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		n := calls.Add(1)
		if n <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"busy"}`))
			return
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		for _, c := range chunks {
			_ = enc.Encode(api.ChatResponse{Model: got.Model, Message: api.Message{Role: "assistant", Content: c}})
		}
		_ = enc.Encode(api.ChatResponse{Model: got.Model, Done: true})
	}))
	t.Cleanup(srv.Close)
	return srv, got, &calls
}

func newTestOllama(t *testing.T, url string) *OllamaClient {
	t.Helper()
	c, err := NewOllamaClient(Options{
		BaseURL:     url,
		APIKey:      "secret",
		Temperature: 0.2,
		Retry:       RetryConfig{MaxRetries: 2, RetryDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	})
	require.NoError(t, err)
	return c
}

func TestOllamaStream(t *testing.T) {
	srv, got, _ := ollamaServer(t, []string{"Hel", "lo", " world"}, 0)
	c := newTestOllama(t, srv.URL)

	var chunks []string
	for chunk, err := range c.Stream(context.Background(), "llama3.2", "say hello") {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}

	assert.Equal(t, []string{"Hel", "lo", " world"}, chunks)
	assert.Equal(t, "llama3.2", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "say hello", got.Messages[0].Content)
	require.NotNil(t, got.Stream)
	assert.True(t, *got.Stream)
}

func TestOllamaStreamEarlyBreak(t *testing.T) {
	srv, _, _ := ollamaServer(t, []string{"a", "b", "c"}, 0)
	c := newTestOllama(t, srv.URL)

	var chunks []string
	for chunk, err := range c.Stream(context.Background(), "m", "p") {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
		break
	}
	assert.Equal(t, []string{"a"}, chunks)
}

func TestOllamaGenerateRetriesServerErrors(t *testing.T) {
	srv, got, calls := ollamaServer(t, []string{"done"}, 1)
	c := newTestOllama(t, srv.URL)

	text, err := c.Generate(context.Background(), "m", "p")
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, int32(2), calls.Load())
	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
}

func TestOllamaGenerateFailsAfterRetries(t *testing.T) {
	srv, _, calls := ollamaServer(t, nil, 10)
	c := newTestOllama(t, srv.URL)

	_, err := c.Generate(context.Background(), "m", "p")
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCollect(t *testing.T) {
	srv, _, _ := ollamaServer(t, []string{"x", "y"}, 0)
	c := newTestOllama(t, srv.URL)

	text, err := Collect(c.Stream(context.Background(), "m", "p"))
	require.NoError(t, err)
	assert.Equal(t, "xy", text)
}
