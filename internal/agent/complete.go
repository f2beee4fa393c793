package agent

import (
	"context"
	"strings"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/lewisedginton/weather_agent/pkg/logger"
	"github.com/lewisedginton/weather_agent/pkg/metrics"
)

// Completer sends a single prompt with no tools and returns the text reply.
type Completer struct {
	llm         model.LLM
	temperature *float32
	purpose     string
	log         logger.Logger
	metrics     *metrics.Metrics
}

// NewCompleter creates a Completer. WithMaxIterations has no effect on it.
func NewCompleter(llm model.LLM, opts ...Option) *Completer {
	s := newSettings("completion", opts)
	return &Completer{
		llm:         llm,
		temperature: s.temperature,
		purpose:     s.purpose,
		log:         s.log,
		metrics:     s.metrics,
	}
}

// Complete returns the model's text answer to prompt. An empty or
// whitespace-only answer is returned as is, not as an error.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		Config:   &genai.GenerateContentConfig{Temperature: c.temperature},
	}

	start := time.Now()
	resp, err := generate(ctx, c.llm, req)
	c.metrics.ObserveLLMCall(c.purpose, time.Since(start), err)
	if err != nil {
		return "", err
	}

	answer, err := completionText(resp)
	if err != nil {
		return "", err
	}

	logger.GetLoggerFromContext(ctx, c.log).Debug("Completion received",
		logger.StringField("purpose", c.purpose),
		logger.IntField("answer_length", len(answer)))
	return answer, nil
}

// completionText joins the non-thought text parts of resp. Unlike decide it
// accepts an empty answer; a tool call is still not an answer.
func completionText(resp *model.LLMResponse) (string, error) {
	if resp.Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, part := range resp.Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			return "", ErrNoFinalAnswer
		}
		if !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
