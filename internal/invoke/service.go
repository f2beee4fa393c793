// Package invoke implements the synchronous request path: classify the
// city, acknowledge it, and hand the lookup to a background scheduler.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lewisedginton/weather_agent/internal/prompts"
	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// RejectionMessage is returned when the input is not a single city.
const RejectionMessage = "Please try again with a valid city name."

// ErrInvalidRequest marks input that fails validation before any LLM call.
var ErrInvalidRequest = errors.New("invalid request")

// AgentRequest is the body of POST /invoke.
type AgentRequest struct {
	User string `json:"user"`
	City string `json:"city"`
	// Context is accepted for callers that send it. It must be a JSON object.
	Context map[string]any `json:"context,omitempty"`
}

// Validate requires both fields to carry something besides whitespace.
func (r AgentRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.User) == "" {
		missing = append(missing, "user")
	}
	if strings.TrimSpace(r.City) == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// AgentResponse is the body returned from POST /invoke.
type AgentResponse struct {
	Message string `json:"message"`
}

// Completer answers a single prompt with text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Scheduler starts the background lookup without waiting for it.
type Scheduler interface {
	Dispatch(ctx context.Context, user, city string)
}

// Service handles invoke requests.
type Service struct {
	classifier   Completer
	acknowledger Completer
	scheduler    Scheduler
	prompts      *prompts.Set
	log          logger.Logger
}

// NewService wires a Service. classifier and acknowledger may be the same
// Completer; they are kept apart so each can be tuned and counted on its own.
func NewService(classifier, acknowledger Completer, scheduler Scheduler, p *prompts.Set, log logger.Logger) *Service {
	return &Service{
		classifier:   classifier,
		acknowledger: acknowledger,
		scheduler:    scheduler,
		prompts:      p,
		log:          log,
	}
}

// Invoke classifies req.City. A "no" answer returns RejectionMessage and
// schedules nothing. Any other answer produces an acknowledgement, schedules
// exactly one background lookup with the unmodified (user, city) pair and
// returns the acknowledgement verbatim.
func (s *Service) Invoke(ctx context.Context, req AgentRequest) (AgentResponse, error) {
	if err := req.Validate(); err != nil {
		return AgentResponse{}, err
	}

	log := logger.GetLoggerFromContext(ctx, s.log).WithFields(
		logger.StringField("user", req.User),
		logger.StringField("city", req.City),
		logger.IntField("context_keys", len(req.Context)),
	)

	valid, err := s.classify(ctx, req.City)
	if err != nil {
		return AgentResponse{}, fmt.Errorf("failed to classify city: %w", err)
	}
	if !valid {
		log.Info("Rejected city")
		return AgentResponse{Message: RejectionMessage}, nil
	}

	prompt, err := s.prompts.Acknowledge(req.City)
	if err != nil {
		return AgentResponse{}, fmt.Errorf("failed to render acknowledgement prompt: %w", err)
	}
	ack, err := s.acknowledger.Complete(ctx, prompt)
	if err != nil {
		return AgentResponse{}, fmt.Errorf("failed to generate acknowledgement: %w", err)
	}

	s.scheduler.Dispatch(ctx, req.User, req.City)
	log.Info("Weather lookup scheduled")

	return AgentResponse{Message: ack}, nil
}

func (s *Service) classify(ctx context.Context, city string) (bool, error) {
	prompt, err := s.prompts.Classify(city)
	if err != nil {
		return false, err
	}
	answer, err := s.classifier.Complete(ctx, prompt)
	if err != nil {
		return false, err
	}
	return !isRejection(answer), nil
}

// isRejection reports whether the classifier said no. Anything else,
// including an unexpected answer, counts as acceptance.
func isRejection(answer string) bool {
	return strings.ToLower(strings.TrimSpace(answer)) == "no"
}
