// Package models builds the configured model.LLM implementation.
package models

import (
	"context"
	"fmt"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/option"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/lewisedginton/weather_agent/internal/config"
	"github.com/lewisedginton/weather_agent/internal/models/anthropic"
	"github.com/lewisedginton/weather_agent/internal/models/openai"
	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// New creates the model for cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (model.LLM, error) {
	provider := cfg.NormalizedProvider()

	switch provider {
	case config.ProviderOpenAI:
		log.Info("Initializing OpenAI model", logger.StringField("model", cfg.OpenAI.Model))
		opts := []openaioption.RequestOption{openaioption.WithBaseURL(cfg.OpenAI.APIBaseURL)}
		if cfg.OpenAI.Timeout > 0 {
			opts = append(opts, openaioption.WithRequestTimeout(cfg.OpenAI.Timeout))
		}
		m, err := openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, opts...)
		if err != nil {
			return nil, err
		}
		m.SetLogger(log)
		return m, nil

	case config.ProviderClaude:
		log.Info("Initializing Claude model", logger.StringField("model", cfg.Anthropic.Model))
		opts := []anthropicoption.RequestOption{anthropicoption.WithBaseURL(cfg.Anthropic.APIBaseURL)}
		if cfg.Anthropic.Timeout > 0 {
			opts = append(opts, anthropicoption.WithRequestTimeout(cfg.Anthropic.Timeout))
		}
		m, err := anthropic.NewClaudeModel(cfg.Anthropic.APIKey, cfg.Anthropic.Model, opts...)
		if err != nil {
			return nil, err
		}
		m.SetLogger(log)
		return m, nil

	case config.ProviderGemini:
		log.Info("Initializing Gemini model", logger.StringField("model", cfg.Gemini.Model))
		clientConfig := &genai.ClientConfig{APIKey: cfg.Gemini.APIKey}
		if cfg.Gemini.UseVertex() {
			clientConfig.Backend = genai.BackendVertexAI
			clientConfig.Project = cfg.Gemini.Project
			clientConfig.Location = cfg.Gemini.Region
			log.Info("Using Vertex AI backend",
				logger.StringField("project", cfg.Gemini.Project),
				logger.StringField("region", cfg.Gemini.Region))
		}
		return gemini.NewModel(ctx, cfg.Gemini.Model, clientConfig)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
