package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiPayloadSkipsThoughts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "Hello "},
				nil,
				{Text: "there"},
			}},
		}},
	}

	text, err := ExtractText(geminiPayload(resp))
	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)
}

func TestGeminiPayloadEmpty(t *testing.T) {
	for _, resp := range []*genai.GenerateContentResponse{
		nil,
		{},
		{Candidates: []*genai.Candidate{{}}},
	} {
		_, err := ExtractText(geminiPayload(resp))
		assert.ErrorIs(t, err, ErrUnsupportedPayload)
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Options{Provider: "gemini"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), Options{Provider: "openai"})
	assert.Error(t, err)
}
