package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-telegram/bot"

	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// TelegramSender sends notifications as bot messages. The recipient's
// EntityRef is the chat ID (numeric or @channelusername).
type TelegramSender struct {
	bot *bot.Bot
	log logger.Logger
}

// NewTelegramSender creates a TelegramSender without contacting Telegram.
// serverURL overrides the Bot API base URL and may be empty.
func NewTelegramSender(botToken, serverURL string, timeout time.Duration, log logger.Logger) (*TelegramSender, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	opts := []bot.Option{
		bot.WithSkipGetMe(),
		bot.WithHTTPClient(timeout, &http.Client{Timeout: timeout}),
	}
	if serverURL != "" {
		opts = append(opts, bot.WithServerURL(serverURL))
	}

	b, err := bot.New(botToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramSender{bot: b, log: log}, nil
}

// Send delivers n once.
func (s *TelegramSender) Send(ctx context.Context, n Notification) error {
	msg, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.Recipient.EntityRef,
		Text:   n.Title + "\n\n" + n.Description,
	})
	if err != nil {
		return fmt.Errorf("telegram notification failed: %w", err)
	}

	logger.GetLoggerFromContext(ctx, s.log).Debug("Telegram notification delivered",
		logger.Int64Field("chat_id", msg.Chat.ID),
		logger.IntField("message_id", msg.ID))
	return nil
}
