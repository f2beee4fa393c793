// Package anthropic adapts Anthropic's messages API to the ADK model.LLM interface.
package anthropic

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// transformADKToAnthropic converts ADK contents to Anthropic messages and
// collects any system-role contents into a separate prompt.
func transformADKToAnthropic(contents []*genai.Content) ([]anthropic.MessageParam, string, error) {
	if len(contents) == 0 {
		return nil, "", fmt.Errorf("no contents provided")
	}

	var messages []anthropic.MessageParam
	var systemPrompt string

	for _, content := range contents {
		if content == nil {
			continue
		}
		if content.Role == "system" {
			systemPrompt = joinNonEmpty("\n\n", systemPrompt, extractText(content))
			continue
		}

		message, err := convertContentToMessage(content)
		if err != nil {
			return nil, "", fmt.Errorf("failed to convert content: %w", err)
		}
		if message != nil {
			messages = append(messages, *message)
		}
	}

	return messages, systemPrompt, nil
}

func convertContentToMessage(content *genai.Content) (*anthropic.MessageParam, error) {
	role := anthropic.MessageParamRoleUser
	if content.Role == "model" || content.Role == "assistant" {
		role = anthropic.MessageParamRoleAssistant
	}

	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range content.Parts {
		block, err := convertPartToContentBlock(part)
		if err != nil {
			return nil, fmt.Errorf("failed to convert part: %w", err)
		}
		if block != nil {
			blocks = append(blocks, *block)
		}
	}

	if len(blocks) == 0 {
		return nil, nil
	}
	return &anthropic.MessageParam{Role: role, Content: blocks}, nil
}

// convertPartToContentBlock maps text, function calls and function
// responses. Tool use and tool result blocks are paired by the call ID.
func convertPartToContentBlock(part *genai.Part) (*anthropic.ContentBlockParamUnion, error) {
	switch {
	case part == nil:
		return nil, nil

	case part.Text != "":
		return &anthropic.ContentBlockParamUnion{
			OfText: &anthropic.TextBlockParam{Text: part.Text},
		}, nil

	case part.FunctionCall != nil:
		input := part.FunctionCall.Args
		if input == nil {
			input = map[string]any{}
		}
		return &anthropic.ContentBlockParamUnion{
			OfToolUse: &anthropic.ToolUseBlockParam{
				ID:    part.FunctionCall.ID,
				Name:  part.FunctionCall.Name,
				Input: input,
			},
		}, nil

	case part.FunctionResponse != nil:
		responseJSON, err := json.Marshal(part.FunctionResponse.Response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal function response: %w", err)
		}
		return &anthropic.ContentBlockParamUnion{
			OfToolResult: &anthropic.ToolResultBlockParam{
				ToolUseID: part.FunctionResponse.ID,
				Content: []anthropic.ToolResultContentBlockParamUnion{
					{OfText: &anthropic.TextBlockParam{Text: string(responseJSON)}},
				},
			},
		}, nil
	}

	return nil, nil
}

// transformAnthropicToADK converts Anthropic Message response to ADK LLMResponse
func transformAnthropicToADK(message *anthropic.Message) (*model.LLMResponse, error) {
	if message == nil {
		return nil, fmt.Errorf("message is nil")
	}

	var parts []*genai.Part
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			parts = append(parts, &genai.Part{Text: b.Text})
		case anthropic.ToolUseBlock:
			part, err := toolUseToPart(b)
			if err != nil {
				return nil, fmt.Errorf("failed to convert content block: %w", err)
			}
			parts = append(parts, part)
		}
	}

	var usage *genai.GenerateContentResponseUsageMetadata
	if total := message.Usage.InputTokens + message.Usage.OutputTokens; total > 0 {
		usage = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(message.Usage.InputTokens),
			CandidatesTokenCount: int32(message.Usage.OutputTokens),
			TotalTokenCount:      int32(total),
		}
	}

	return &model.LLMResponse{
		Content:       &genai.Content{Role: "model", Parts: parts},
		UsageMetadata: usage,
		FinishReason:  mapStopReason(message.StopReason),
		TurnComplete:  true,
	}, nil
}

func mapStopReason(reason anthropic.StopReason) genai.FinishReason {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence, anthropic.StopReasonToolUse:
		return genai.FinishReasonStop
	case anthropic.StopReasonMaxTokens:
		return genai.FinishReasonMaxTokens
	case anthropic.StopReasonRefusal:
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonOther
	}
}

func toolUseToPart(b anthropic.ToolUseBlock) (*genai.Part, error) {
	argsJSON, err := json.Marshal(b.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool input: %w", err)
	}
	var args map[string]any
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool args: %w", err)
	}
	return &genai.Part{
		FunctionCall: &genai.FunctionCall{ID: b.ID, Name: b.Name, Args: args},
	}, nil
}

type declarer interface {
	Declaration() *genai.FunctionDeclaration
}

// transformToolsToAnthropic converts tools exposing a Declaration method,
// sorted by name for stable requests.
func transformToolsToAnthropic(tools map[string]any) []anthropic.ToolUnionParam {
	var out []anthropic.ToolUnionParam

	for _, t := range tools {
		d, ok := t.(declarer)
		if !ok {
			continue
		}
		decl := d.Declaration()
		if decl == nil || decl.Name == "" {
			continue
		}

		schema := anthropic.ToolInputSchemaParam{}
		if js := schemaObject(decl.ParametersJsonSchema); js != nil {
			schema.Properties = js["properties"]
			schema.Required = requiredFields(js["required"])
		}

		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        decl.Name,
				Description: anthropic.String(decl.Description),
				InputSchema: schema,
			},
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].OfTool.Name < out[j].OfTool.Name })
	return out
}

// schemaObject turns a declaration's JSON schema, typed or untyped, into a
// plain object. It returns nil when the schema is absent or not an object.
func schemaObject(schema any) map[string]any {
	switch s := schema.(type) {
	case nil:
		return nil
	case map[string]any:
		return s
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func requiredFields(v any) []string {
	switch r := v.(type) {
	case []string:
		return r
	case []any:
		out := make([]string, 0, len(r))
		for _, s := range r {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func extractText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var texts []string
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func joinNonEmpty(sep string, values ...string) string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, sep)
}
