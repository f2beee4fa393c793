package agent

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/model"
)

// ErrEmptyResponse is returned when the model produced neither text nor tool calls.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Decision is what the model decided to do on one turn: either ToolCalls
// or FinalAnswer.
type Decision interface {
	isDecision()
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolCalls asks the runner to invoke the listed tools and report back.
type ToolCalls []ToolCall

// FinalAnswer ends the run with a text answer.
type FinalAnswer struct {
	Text string
}

func (ToolCalls) isDecision()   {}
func (FinalAnswer) isDecision() {}

// decide reads a model response. Tool calls win over text, since models
// often narrate while they call tools. Calls without an ID get a generated
// one so results can be paired with them.
func decide(resp *model.LLMResponse) (Decision, error) {
	if resp == nil || resp.Content == nil {
		return nil, ErrEmptyResponse
	}

	var calls ToolCalls
	var texts []string
	for _, part := range resp.Content.Parts {
		if part == nil {
			continue
		}
		if fc := part.FunctionCall; fc != nil {
			id := fc.ID
			if id == "" {
				id = "call_" + uuid.NewString()
				fc.ID = id
			}
			calls = append(calls, ToolCall{ID: id, Name: fc.Name, Args: fc.Args})
			continue
		}
		if part.Text != "" && !part.Thought {
			texts = append(texts, part.Text)
		}
	}

	if len(calls) > 0 {
		return calls, nil
	}

	text := strings.Join(texts, "")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}
	return FinalAnswer{Text: text}, nil
}
