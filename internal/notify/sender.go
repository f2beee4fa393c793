package notify

import (
	"fmt"

	"github.com/lewisedginton/weather_agent/internal/config"
	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// NewSender builds the Sender for cfg's backend.
func NewSender(cfg config.NotificationsConfig, log logger.Logger) (Sender, error) {
	switch backend := cfg.ResolvedBackend(); backend {
	case config.NotificationBackendHTTP:
		return NewHTTPSender(cfg.APIURL, cfg.BearerToken, cfg.Timeout, log), nil
	case config.NotificationBackendSlack:
		return NewSlackSender(cfg.SlackBotToken, cfg.SlackAPIURL, cfg.Timeout, log), nil
	case config.NotificationBackendTelegram:
		return NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramAPIURL, cfg.Timeout, log)
	default:
		return nil, fmt.Errorf("unsupported notification backend: %s", backend)
	}
}
