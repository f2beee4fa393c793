// Package fulfillment runs the background weather lookup and delivers the
// result as a notification.
package fulfillment

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/lewisedginton/weather_agent/internal/notify"
	"github.com/lewisedginton/weather_agent/internal/prompts"
	"github.com/lewisedginton/weather_agent/pkg/logger"
	"github.com/lewisedginton/weather_agent/pkg/metrics"
)

// Agent runs a tool-augmented conversation and returns the final answer.
type Agent interface {
	Run(ctx context.Context, system, prompt string) (string, error)
}

// Task looks up the weather for a city and notifies the user. Exactly one
// notification is attempted per Run.
type Task struct {
	agent   Agent
	sender  notify.Sender
	prompts *prompts.Set
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewTask creates a Task. m may be nil.
func NewTask(agent Agent, sender notify.Sender, p *prompts.Set, log logger.Logger, m *metrics.Metrics) *Task {
	return &Task{agent: agent, sender: sender, prompts: p, log: log, metrics: m}
}

// Title returns the notification title for city.
func Title(city string) string {
	return "Weather for " + city
}

// FallbackDescription is sent when the lookup itself failed.
func FallbackDescription(city string) string {
	return fmt.Sprintf("Sorry, I couldn't get the weather for %s right now. Please try again later.", city)
}

// Run performs the lookup and sends the notification. Failures are logged
// here; the returned error only summarises them for the caller's metrics.
func (t *Task) Run(ctx context.Context, user, city string) error {
	log := logger.GetLoggerFromContext(ctx, t.log).WithFields(
		logger.StringField("user", user),
		logger.StringField("city", city),
	)

	var result error

	description, err := t.lookup(ctx, city)
	if err != nil {
		log.Error("Weather lookup failed, sending fallback notification", logger.ErrorField(err))
		t.metrics.IncJob(metrics.JobMetricTotalFailed)
		description = FallbackDescription(city)
		result = multierror.Append(result, fmt.Errorf("lookup: %w", err))
	}

	log.Info("Sending notification")
	if err := t.sender.Send(ctx, notify.ForUser(user, Title(city), description)); err != nil {
		log.Error("Failed to send notification", logger.ErrorField(err))
		t.metrics.IncJob(metrics.JobMetricNotificationsFailed)
		result = multierror.Append(result, fmt.Errorf("notify: %w", err))
	}

	return result
}

func (t *Task) lookup(ctx context.Context, city string) (string, error) {
	system, err := t.prompts.System()
	if err != nil {
		return "", err
	}
	prompt, err := t.prompts.Lookup(city)
	if err != nil {
		return "", err
	}
	return t.agent.Run(ctx, system, prompt)
}
