package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/semmidev/pusher/internal/config"
	"github.com/semmidev/pusher/internal/domain"
)

type TelegramNotifier struct {
	bot          *tgbotapi.BotAPI
	chatID       int64
	onlyFailures bool
	source       string
}

var _ domain.Notifier = (*TelegramNotifier)(nil)

// NewTelegram connects to the Bot API. source identifies this host in messages.
func NewTelegram(cfg config.TelegramConfig, source string) (*TelegramNotifier, error) {
	return newTelegram(cfg, source, tgbotapi.APIEndpoint)
}

func newTelegram(cfg config.TelegramConfig, source, endpoint string) (*TelegramNotifier, error) {
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id: %w", err)
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.BotToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:          bot,
		chatID:       chatID,
		onlyFailures: cfg.OnlyFailures,
		source:       source,
	}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, summary *domain.RunSummary) error {
	if t.onlyFailures && !summary.Failure() {
		return nil
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatSummary(t.source, summary))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}

	return nil
}

// FormatSummary renders a run summary as a short chat message.
func FormatSummary(source string, summary *domain.RunSummary) string {
	var b strings.Builder

	switch summary.State {
	case domain.StateDone:
		fmt.Fprintf(&b, "✅ Backups pushed (%s)\n", source)
	case domain.StateNothingToDo:
		fmt.Fprintf(&b, "⚠️ No backups to push (%s)\n", source)
	default:
		fmt.Fprintf(&b, "❌ Backup push failed (%s)\n", source)
	}

	fmt.Fprintf(&b, "\n📦 Pushed: %d", len(summary.Pushed))
	for _, name := range summary.Pushed {
		fmt.Fprintf(&b, "\n  • %s", name)
	}

	if summary.Failed != "" {
		fmt.Fprintf(&b, "\n📁 Halted on: %s", summary.Failed)
	}
	if summary.Err != nil {
		fmt.Fprintf(&b, "\n💥 Error: %v", summary.Err)
	}
	if len(summary.Leftover) > 0 {
		fmt.Fprintf(&b, "\n🗑 Not removed locally: %s", strings.Join(summary.Leftover, ", "))
	}

	fmt.Fprintf(&b, "\n🕐 Took: %s", summary.Duration().Round(time.Millisecond))

	return b.String()
}
