package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/weather_agent/internal/config"
	"github.com/lewisedginton/weather_agent/pkg/logger"
)

func TestNew(t *testing.T) {
	log := logger.NewNopLogger()

	t.Run("openai", func(t *testing.T) {
		m, err := New(context.Background(), config.LLMConfig{
			Provider: "openai",
			OpenAI:   config.OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", APIBaseURL: "http://localhost"},
		}, log)
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", m.Name())
	})

	t.Run("anthropic alias resolves to claude", func(t *testing.T) {
		m, err := New(context.Background(), config.LLMConfig{
			Provider:  "Anthropic",
			Anthropic: config.AnthropicConfig{APIKey: "k", Model: "claude-sonnet-4-5-20250929", APIBaseURL: "http://localhost"},
		}, log)
		require.NoError(t, err)
		assert.Equal(t, "claude-sonnet-4-5-20250929", m.Name())
	})

	t.Run("missing key surfaces adapter error", func(t *testing.T) {
		_, err := New(context.Background(), config.LLMConfig{Provider: "openai", OpenAI: config.OpenAIConfig{Model: "gpt-4o-mini"}}, log)
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(context.Background(), config.LLMConfig{Provider: "llama"}, log)
		assert.ErrorContains(t, err, "unsupported LLM provider")
	})
}
