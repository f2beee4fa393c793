// Package openai adapts OpenAI's chat completions API to the ADK model.LLM interface.
package openai

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/openai/openai-go"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// transformADKToOpenAI converts ADK contents to chat messages. A single
// content may expand into several messages because each function response
// becomes its own tool message.
func transformADKToOpenAI(contents []*genai.Content) ([]openai.ChatCompletionMessageParamUnion, error) {
	var messages []openai.ChatCompletionMessageParamUnion

	for _, content := range contents {
		if content == nil || len(content.Parts) == 0 {
			continue
		}

		switch content.Role {
		case "model", "assistant":
			msg, err := convertAssistantContent(content.Parts)
			if err != nil {
				return nil, err
			}
			if msg != nil {
				messages = append(messages, *msg)
			}
		case "system":
			if text := joinText(content.Parts, "\n\n"); text != "" {
				messages = append(messages, openai.SystemMessage(text))
			}
		default:
			msgs, err := convertUserContent(content.Parts)
			if err != nil {
				return nil, err
			}
			messages = append(messages, msgs...)
		}
	}

	return messages, nil
}

// convertUserContent emits tool messages for function responses and a
// single user message for any text.
func convertUserContent(parts []*genai.Part) ([]openai.ChatCompletionMessageParamUnion, error) {
	var messages []openai.ChatCompletionMessageParamUnion

	for _, part := range parts {
		if part == nil || part.FunctionResponse == nil {
			continue
		}
		msg, err := CreateToolResultMessage(part.FunctionResponse.ID, part.FunctionResponse.Response)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if text := joinText(parts, "\n"); text != "" {
		messages = append(messages, openai.UserMessage(text))
	}

	return messages, nil
}

func convertAssistantContent(parts []*genai.Part) (*openai.ChatCompletionMessageParamUnion, error) {
	text := joinText(parts, "\n")
	var toolCalls []openai.ChatCompletionMessageToolCallParam

	for _, part := range parts {
		if part == nil || part.FunctionCall == nil {
			continue
		}
		argsJSON, err := json.Marshal(part.FunctionCall.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal function args: %w", err)
		}
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   part.FunctionCall.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      part.FunctionCall.Name,
				Arguments: string(argsJSON),
			},
		})
	}

	if text == "" && len(toolCalls) == 0 {
		return nil, nil
	}

	if len(toolCalls) == 0 {
		msg := openai.AssistantMessage(text)
		return &msg, nil
	}

	assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
	if text != "" {
		assistant.Content.OfString = openai.String(text)
	}
	return &openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}, nil
}

func joinText(parts []*genai.Part, sep string) string {
	var texts []string
	for _, part := range parts {
		if part != nil && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, sep)
}

// transformOpenAIToADK converts the first choice of a completion to an LLMResponse.
func transformOpenAIToADK(completion *openai.ChatCompletion) (*model.LLMResponse, error) {
	if completion == nil {
		return nil, fmt.Errorf("nil completion")
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := completion.Choices[0]
	var parts []*genai.Part

	if choice.Message.Content != "" {
		parts = append(parts, &genai.Part{Text: choice.Message.Content})
	}

	for _, toolCall := range choice.Message.ToolCalls {
		var args map[string]any
		if toolCall.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool arguments: %w", err)
			}
		}
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   toolCall.ID,
				Name: toolCall.Function.Name,
				Args: args,
			},
		})
	}

	var usage *genai.GenerateContentResponseUsageMetadata
	if completion.Usage.TotalTokens > 0 {
		usage = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(completion.Usage.PromptTokens),
			CandidatesTokenCount: int32(completion.Usage.CompletionTokens),
			TotalTokenCount:      int32(completion.Usage.TotalTokens),
		}
	}

	return &model.LLMResponse{
		Content:       &genai.Content{Role: "model", Parts: parts},
		UsageMetadata: usage,
		FinishReason:  mapFinishReason(choice.FinishReason),
		TurnComplete:  true,
	}, nil
}

func mapFinishReason(finishReason string) genai.FinishReason {
	switch finishReason {
	case "stop", "tool_calls", "function_call":
		return genai.FinishReasonStop
	case "length":
		return genai.FinishReasonMaxTokens
	case "content_filter":
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonOther
	}
}

type declarer interface {
	Declaration() *genai.FunctionDeclaration
}

// transformToolsToOpenAI converts tools exposing a Declaration method into
// function tool params, sorted by name for stable requests.
func transformToolsToOpenAI(tools map[string]any) []openai.ChatCompletionToolParam {
	var out []openai.ChatCompletionToolParam

	for _, t := range tools {
		d, ok := t.(declarer)
		if !ok {
			continue
		}
		decl := d.Declaration()
		if decl == nil || decl.Name == "" {
			continue
		}

		parameters := openai.FunctionParameters{}
		if schema := schemaObject(decl.ParametersJsonSchema); schema != nil {
			for k, v := range schema {
				parameters[k] = v
			}
		}
		if _, ok := parameters["type"]; !ok {
			parameters["type"] = "object"
		}

		out = append(out, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        decl.Name,
				Description: openai.String(decl.Description),
				Parameters:  parameters,
			},
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Function.Name < out[j].Function.Name })
	return out
}

// schemaObject accepts either a plain map or a typed schema such as
// *jsonschema.Schema and returns it as a map.
func schemaObject(schema any) map[string]any {
	if schema == nil {
		return nil
	}
	if m, ok := schema.(map[string]any); ok {
		return m
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var out map[string]any
	if json.Unmarshal(data, &out) != nil {
		return nil
	}
	return out
}

// CreateToolResultMessage wraps a tool result as a tool message answering toolCallID.
func CreateToolResultMessage(toolCallID string, result any) (openai.ChatCompletionMessageParamUnion, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return openai.ToolMessage(string(resultJSON), toolCallID), nil
}
