package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Notification backends.
const (
	NotificationBackendHTTP     = "http"
	NotificationBackendSlack    = "slack"
	NotificationBackendTelegram = "telegram"
)

// NotificationsConfig selects and configures the outbound notification channel.
type NotificationsConfig struct {
	// Backend is http (the notification service), slack or telegram. For
	// slack and telegram the recipient entityRef is the channel or chat ID.
	Backend string `env:"NOTIFICATIONS_BACKEND" yaml:"backend" default:"http"`

	APIURL      string        `env:"NOTIFICATIONS_API_URL" yaml:"api_url"`
	BearerToken string        `env:"NOTIFICATIONS_BEARER_TOKEN" yaml:"bearer_token"`
	Timeout     time.Duration `env:"NOTIFICATIONS_TIMEOUT" yaml:"timeout" default:"10s"`

	SlackBotToken string `env:"SLACK_BOT_TOKEN" yaml:"slack_bot_token"`
	SlackAPIURL   string `env:"SLACK_API_URL" yaml:"slack_api_url"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN" yaml:"telegram_bot_token"`
	TelegramAPIURL   string `env:"TELEGRAM_API_URL" yaml:"telegram_api_url"`
}

// ResolvedBackend treats an empty backend as http.
func (n NotificationsConfig) ResolvedBackend() string {
	if n.Backend == "" {
		return NotificationBackendHTTP
	}
	return strings.ToLower(n.Backend)
}

// Validate checks the settings of the selected backend.
func (n NotificationsConfig) Validate() error {
	var result error

	switch n.ResolvedBackend() {
	case NotificationBackendHTTP:
		if n.APIURL == "" {
			result = multierror.Append(result, fmt.Errorf("NOTIFICATIONS_API_URL is required"))
		} else if _, err := url.ParseRequestURI(n.APIURL); err != nil {
			result = multierror.Append(result, fmt.Errorf("NOTIFICATIONS_API_URL is invalid: %w", err))
		}
		if n.BearerToken == "" {
			result = multierror.Append(result, fmt.Errorf("NOTIFICATIONS_BEARER_TOKEN is required"))
		}
	case NotificationBackendSlack:
		if !strings.HasPrefix(n.SlackBotToken, "xoxb-") {
			result = multierror.Append(result, fmt.Errorf("SLACK_BOT_TOKEN is required and must start with xoxb-"))
		}
	case NotificationBackendTelegram:
		if n.TelegramBotToken == "" {
			result = multierror.Append(result, fmt.Errorf("TELEGRAM_BOT_TOKEN is required"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("NOTIFICATIONS_BACKEND must be one of [http, slack, telegram], got %q", n.Backend))
	}

	if n.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("NOTIFICATIONS_TIMEOUT must be greater than 0"))
	}

	return result
}
