package anthropic

import (
	"context"
	"fmt"
	"iter"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/adk/model"

	"github.com/lewisedginton/weather_agent/pkg/logger"
)

const defaultMaxTokens int64 = 1024

// ClaudeModel implements the model.LLM interface for Anthropic Claude models
type ClaudeModel struct {
	client    anthropic.Client
	modelName string
	log       logger.Logger
}

// NewClaudeModel creates a new Claude model instance. Retries are disabled.
func NewClaudeModel(apiKey, modelName string, opts ...option.RequestOption) (*ClaudeModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if modelName == "" {
		modelName = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}

	client := anthropic.NewClient(
		append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)...,
	)

	return &ClaudeModel{
		client:    client,
		modelName: modelName,
		log:       logger.NewNopLogger(),
	}, nil
}

// SetLogger replaces the model's logger.
func (c *ClaudeModel) SetLogger(log logger.Logger) {
	c.log = log.WithFields(logger.StringField("component", "claude_model"), logger.StringField("model", c.modelName))
}

// Name returns the name of the model
func (c *ClaudeModel) Name() string {
	return c.modelName
}

// GenerateContent implements the model.LLM interface. Streaming is not supported.
func (c *ClaudeModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		if stream {
			yield(nil, fmt.Errorf("streaming not supported"))
			return
		}
		yield(c.generate(ctx, req))
	}
}

func (c *ClaudeModel) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	messages, systemPrompt, err := transformADKToAnthropic(req.Contents)
	if err != nil {
		return nil, fmt.Errorf("failed to transform request: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelName),
		MaxTokens: defaultMaxTokens,
		Messages:  messages,
	}

	if req.Config != nil {
		if instruction := extractText(req.Config.SystemInstruction); instruction != "" {
			systemPrompt = joinNonEmpty("\n\n", instruction, systemPrompt)
		}
		if req.Config.MaxOutputTokens > 0 {
			params.MaxTokens = int64(req.Config.MaxOutputTokens)
		}
		if req.Config.Temperature != nil {
			params.Temperature = anthropic.Float(float64(*req.Config.Temperature))
		}
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	if tools := transformToolsToAnthropic(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	logger.GetLoggerFromContext(ctx, c.log).Debug("Sending request to Anthropic",
		logger.IntField("messages_count", len(messages)),
		logger.IntField("tools_count", len(params.Tools)))

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude api error: %w", err)
	}

	llmResponse, err := transformAnthropicToADK(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to transform response: %w", err)
	}
	return llmResponse, nil
}
