package openai

import (
	"context"
	"fmt"
	"iter"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/adk/model"

	"github.com/lewisedginton/weather_agent/pkg/logger"
)

const defaultMaxTokens int64 = 1024

// Model implements the model.LLM interface for OpenAI chat models.
type Model struct {
	client    *openai.Client
	modelName string
	log       logger.Logger
}

// New creates a new OpenAI model. Extra request options (base URL, timeout)
// are passed through to the client. Retries are disabled; a failed call is
// surfaced to the caller as is.
func New(apiKey, modelName string, opts ...option.RequestOption) (*Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := openai.NewClient(clientOpts...)

	return &Model{
		client:    &client,
		modelName: modelName,
		log:       logger.NewNopLogger(),
	}, nil
}

// SetLogger replaces the model's logger.
func (o *Model) SetLogger(log logger.Logger) {
	o.log = log.WithFields(logger.StringField("component", "openai_model"))
}

// Name returns the model name.
func (o *Model) Name() string {
	return o.modelName
}

// GenerateContent only supports non-streaming mode.
func (o *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		if stream {
			yield(nil, fmt.Errorf("streaming not supported"))
			return
		}

		response, err := o.generate(ctx, req)
		yield(response, err)
	}
}

func (o *Model) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	messages, err := transformADKToOpenAI(req.Contents)
	if err != nil {
		return nil, fmt.Errorf("failed to transform request: %w", err)
	}

	if system := systemInstruction(req); system != "" {
		messages = append([]openai.ChatCompletionMessageParamUnion{openai.SystemMessage(system)}, messages...)
	}

	maxTokens := defaultMaxTokens
	if req.Config != nil && req.Config.MaxOutputTokens > 0 {
		maxTokens = int64(req.Config.MaxOutputTokens)
	}

	params := openai.ChatCompletionNewParams{
		Model:     o.modelName,
		MaxTokens: openai.Int(maxTokens),
		Messages:  messages,
	}

	if req.Config != nil && req.Config.Temperature != nil {
		params.Temperature = openai.Float(float64(*req.Config.Temperature))
	}

	if tools := transformToolsToOpenAI(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	logger.GetLoggerFromContext(ctx, o.log).Debug("Sending request to OpenAI",
		logger.StringField("model", o.modelName),
		logger.IntField("messages", len(messages)),
		logger.IntField("tools", len(params.Tools)))

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}

	response, err := transformOpenAIToADK(completion)
	if err != nil {
		return nil, fmt.Errorf("failed to transform response: %w", err)
	}

	return response, nil
}

func systemInstruction(req *model.LLMRequest) string {
	if req.Config == nil || req.Config.SystemInstruction == nil {
		return ""
	}
	var text string
	for _, part := range req.Config.SystemInstruction.Parts {
		if part != nil && part.Text != "" {
			if text != "" {
				text += "\n\n"
			}
			text += part.Text
		}
	}
	return text
}
