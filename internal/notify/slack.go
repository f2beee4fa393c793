package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// SlackSender posts notifications as bot messages. The recipient's
// EntityRef is the channel, DM or user ID to post to.
type SlackSender struct {
	client *slack.Client
	log    logger.Logger
}

// NewSlackSender creates a SlackSender. apiURL overrides the Slack Web API
// base URL and may be empty.
func NewSlackSender(botToken, apiURL string, timeout time.Duration, log logger.Logger) *SlackSender {
	if log == nil {
		log = logger.NewNopLogger()
	}
	opts := []slack.Option{slack.OptionHTTPClient(&http.Client{Timeout: timeout})}
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &SlackSender{client: slack.New(botToken, opts...), log: log}
}

// Send posts n once.
func (s *SlackSender) Send(ctx context.Context, n Notification) error {
	text := fmt.Sprintf("*%s*\n%s", n.Title, n.Description)
	channel, ts, err := s.client.PostMessageContext(ctx, n.Recipient.EntityRef, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack notification failed: %w", err)
	}

	logger.GetLoggerFromContext(ctx, s.log).Debug("Slack notification delivered",
		logger.StringField("channel", channel),
		logger.StringField("ts", ts))
	return nil
}
