// Package agent drives a model through a bounded tool-calling loop and
// provides single prompt completions.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/lewisedginton/weather_agent/pkg/logger"
	"github.com/lewisedginton/weather_agent/pkg/metrics"
)

// DefaultMaxIterations is used when no WithMaxIterations option is given.
const DefaultMaxIterations = 5

// ErrNoFinalAnswer is returned when the model keeps requesting tools after
// they have been withdrawn.
var ErrNoFinalAnswer = errors.New("model did not produce a final answer")

const finalAnswerNudge = "You have used all available tool calls. Answer now using only the information gathered so far."

type state int

const (
	awaitingDecision state = iota
	invokingTools
	awaitingFinalAnswer
	done
)

func (s state) String() string {
	switch s {
	case awaitingDecision:
		return "awaiting-decision"
	case invokingTools:
		return "invoking-tools"
	case awaitingFinalAnswer:
		return "awaiting-final-answer"
	default:
		return "done"
	}
}

// Runner runs one conversation per call to Run. It holds no per-run state
// and is safe for concurrent use.
type Runner struct {
	llm           model.LLM
	tools         map[string]Tool
	maxIterations int
	temperature   *float32
	purpose       string
	log           logger.Logger
	metrics       *metrics.Metrics
}

// Option configures a Runner or a Completer.
type Option func(*settings)

type settings struct {
	maxIterations int
	temperature   *float32
	purpose       string
	log           logger.Logger
	metrics       *metrics.Metrics
}

// WithMaxIterations bounds how many model turns may request tools.
func WithMaxIterations(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithTemperature sets the sampling temperature sent with every request.
func WithTemperature(t float64) Option {
	return func(s *settings) { s.temperature = genai.Ptr(float32(t)) }
}

// WithPurpose labels LLM call metrics and logs.
func WithPurpose(p string) Option {
	return func(s *settings) { s.purpose = p }
}

// WithLogger sets the base logger. Correlation IDs are taken from the Run context.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithMetrics records every LLM call.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

func newSettings(purpose string, opts []Option) settings {
	s := settings{
		maxIterations: DefaultMaxIterations,
		purpose:       purpose,
		log:           logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewRunner creates a Runner offering tools to llm.
func NewRunner(llm model.LLM, tools []Tool, opts ...Option) *Runner {
	s := newSettings("tool_loop", opts)
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}
	return &Runner{
		llm:           llm,
		tools:         byName,
		maxIterations: s.maxIterations,
		temperature:   s.temperature,
		purpose:       s.purpose,
		log:           s.log,
		metrics:       s.metrics,
	}
}

// Run sends prompt under the system instruction and keeps invoking the
// requested tools until the model answers in text. After maxIterations
// tool rounds the tools are withdrawn and the model gets one more turn to
// answer; if it still asks for tools Run returns ErrNoFinalAnswer.
func (r *Runner) Run(ctx context.Context, system, prompt string) (string, error) {
	log := logger.GetLoggerFromContext(ctx, r.log).WithFields(logger.StringField("purpose", r.purpose))

	history := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	current := awaitingDecision
	iterations := 0
	var pending ToolCalls
	var answer string

	for current != done {
		switch current {
		case awaitingDecision, awaitingFinalAnswer:
			withTools := current == awaitingDecision
			resp, err := r.generate(ctx, r.request(system, history, withTools))
			if err != nil {
				return "", err
			}
			decision, err := decide(resp)
			if err != nil {
				return "", err
			}

			switch d := decision.(type) {
			case FinalAnswer:
				answer = d.Text
				current = done
			case ToolCalls:
				if !withTools {
					return "", ErrNoFinalAnswer
				}
				history = append(history, resp.Content)
				pending = d
				current = invokingTools
			}

		case invokingTools:
			iterations++
			log.Debug("Invoking tools",
				logger.IntField("iteration", iterations),
				logger.IntField("tool_calls", len(pending)))

			history = append(history, r.invoke(ctx, log, pending))
			pending = nil

			if iterations >= r.maxIterations {
				log.Warn("Tool iteration budget exhausted, forcing final answer",
					logger.IntField("max_iterations", r.maxIterations))
				history = append(history, genai.NewContentFromText(finalAnswerNudge, genai.RoleUser))
				current = awaitingFinalAnswer
			} else {
				current = awaitingDecision
			}
		}
	}

	log.Debug("Run finished", logger.IntField("iterations", iterations))
	return answer, nil
}

// invoke runs each call in order and returns their results as one user turn.
func (r *Runner) invoke(ctx context.Context, log logger.Logger, calls ToolCalls) *genai.Content {
	parts := make([]*genai.Part, 0, len(calls))
	for _, call := range calls {
		var result map[string]any

		tool, ok := r.tools[call.Name]
		if !ok {
			log.Warn("Model requested unknown tool", logger.StringField("tool", call.Name))
			result = map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}
		} else {
			out, err := tool.Call(ctx, call.Args)
			switch {
			case err != nil:
				log.Warn("Tool call failed", logger.StringField("tool", call.Name), logger.ErrorField(err))
				result = map[string]any{"error": err.Error()}
			case out == nil:
				result = map[string]any{}
			default:
				result = out
			}
		}

		parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       call.ID,
			Name:     call.Name,
			Response: result,
		}})
	}
	return &genai.Content{Role: genai.RoleUser, Parts: parts}
}

func (r *Runner) request(system string, history []*genai.Content, withTools bool) *model.LLMRequest {
	req := &model.LLMRequest{
		Contents: history,
		Config:   &genai.GenerateContentConfig{Temperature: r.temperature},
	}
	if system != "" {
		req.Config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if withTools && len(r.tools) > 0 {
		req.Tools = make(map[string]any, len(r.tools))
		decls := make([]*genai.FunctionDeclaration, 0, len(r.tools))
		for name, t := range r.tools {
			req.Tools[name] = t
			decls = append(decls, t.Declaration())
		}
		req.Config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return req
}

func (r *Runner) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	start := time.Now()
	resp, err := generate(ctx, r.llm, req)
	r.metrics.ObserveLLMCall(r.purpose, time.Since(start), err)
	return resp, err
}

// generate drains a non-streaming GenerateContent call and keeps the last
// complete response.
func generate(ctx context.Context, llm model.LLM, req *model.LLMRequest) (*model.LLMResponse, error) {
	var last *model.LLMResponse
	for resp, err := range llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return nil, fmt.Errorf("generate content with %s: %w", llm.Name(), err)
		}
		if resp != nil && !resp.Partial {
			last = resp
		}
	}
	if last == nil {
		return nil, ErrEmptyResponse
	}
	return last, nil
}
