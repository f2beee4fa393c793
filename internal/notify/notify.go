// Package notify delivers notifications to the external notification service,
// or directly to Slack or Telegram.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// RecipientTypeEntity addresses a single user or entity reference.
const RecipientTypeEntity = "entity"

const maxErrorBody = 512

// Notification is a message for one recipient.
type Notification struct {
	Title       string
	Description string
	Recipient   Recipient
}

// Recipient identifies who receives a Notification.
type Recipient struct {
	Type      string `json:"type"`
	EntityRef string `json:"entityRef"`
}

// ForUser builds a notification addressed to a single entity.
func ForUser(user, title, description string) Notification {
	return Notification{
		Title:       title,
		Description: description,
		Recipient:   Recipient{Type: RecipientTypeEntity, EntityRef: user},
	}
}

type wirePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type wireNotification struct {
	Payload    wirePayload `json:"payload"`
	Recipients Recipient   `json:"recipients"`
}

// MarshalJSON encodes the notification in the service's wire format:
// {"payload": {title, description}, "recipients": {type, entityRef}}.
func (n Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireNotification{
		Payload:    wirePayload{Title: n.Title, Description: n.Description},
		Recipients: n.Recipient,
	})
}

// Sender delivers a notification. Implementations do not retry.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// HTTPSender POSTs notifications with a bearer token.
type HTTPSender struct {
	url    string
	token  string
	client *http.Client
	log    logger.Logger
}

// NewHTTPSender creates an HTTPSender whose requests time out after timeout.
func NewHTTPSender(url, token string, timeout time.Duration, log logger.Logger) *HTTPSender {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &HTTPSender{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Send POSTs n once. Any transport failure or non-2xx status is an error.
func (s *HTTPSender) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	if id := logger.GetCorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(logger.CorrelationIDHeader, id)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("notification service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	logger.GetLoggerFromContext(ctx, s.log).Debug("Notification delivered",
		logger.StringField("recipient", n.Recipient.EntityRef),
		logger.HTTPStatusField(resp.StatusCode),
		logger.DurationField("duration", time.Since(start)))
	return nil
}
