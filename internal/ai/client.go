// Package ai adapts chat completion providers to the two calls the editor needs.
package ai

import (
	"context"
	"iter"
)

// Client is a text generation backend.
type Client interface {
	// Generate returns the full response text for prompt.
	Generate(ctx context.Context, model, prompt string) (string, error)
	// Stream yields response text chunks as they arrive. A non-nil error
	// ends the sequence.
	Stream(ctx context.Context, model, prompt string) iter.Seq2[string, error]
}

// Collect drains a stream into a single string.
func Collect(seq iter.Seq2[string, error]) (string, error) {
	var out []byte
	for chunk, err := range seq {
		if err != nil {
			return string(out), err
		}
		out = append(out, chunk...)
	}
	return string(out), nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
