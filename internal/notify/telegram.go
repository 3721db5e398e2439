package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

// sender is the part of *tgbotapi.BotAPI the notifier needs
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts confident matches to a chat. Each send is a single
// attempt.
type TelegramNotifier struct {
	bot        sender
	chatID     int64
	maxMatches int
	location   *time.Location
	logger     zerolog.Logger
}

// TelegramConfig holds Telegram notifier configuration
type TelegramConfig struct {
	BotToken   string
	ChatID     string
	MaxMatches int // cap on listed matches, defaults to 10
	Location   *time.Location
}

// NewTelegramNotifier creates a notifier backed by the Bot API
func NewTelegramNotifier(config TelegramConfig, logger zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newTelegramNotifier(bot, config, logger)
}

func newTelegramNotifier(bot sender, config TelegramConfig, logger zerolog.Logger) (*TelegramNotifier, error) {
	chatID, err := strconv.ParseInt(config.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	maxMatches := config.MaxMatches
	if maxMatches <= 0 {
		maxMatches = 10
	}
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	return &TelegramNotifier{
		bot:        bot,
		chatID:     chatID,
		maxMatches: maxMatches,
		location:   loc,
		logger:     logger.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

// Name implements service.Sink
func (n *TelegramNotifier) Name() string {
	return "telegram"
}

// Emit sends one message listing the confident matches. Nothing is sent when
// no match qualifies.
func (n *TelegramNotifier) Emit(ctx context.Context, report *models.Report) error {
	confident := report.Confident()
	if len(confident) == 0 {
		n.logger.Debug().Msg("no confident matches to notify")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, n.formatMessage(report, confident))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}

	n.logger.Info().
		Int64("chat_id", n.chatID).
		Int("matches", len(confident)).
		Msg("sent confident picks")

	return nil
}

func (n *TelegramNotifier) formatMessage(report *models.Report, confident []models.RankedMatch) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*Confident picks* for the next %d day\\(s\\)\n\n", report.WindowDays)

	shown := confident
	if len(shown) > n.maxMatches {
		shown = shown[:n.maxMatches]
	}

	for i, m := range shown {
		score := "inf"
		if m.Predictability != nil {
			score = m.Predictability.StringFixed(2)
		}

		fmt.Fprintf(&b, "%d\\. *%s* vs *%s*\n", i+1, escapeMarkdownV2(m.Team1), escapeMarkdownV2(m.Team2))
		fmt.Fprintf(&b, "    %s · %s · score %s\n",
			escapeMarkdownV2(m.League),
			escapeMarkdownV2(m.CommenceTime.In(n.location).Format("02-01-2006 15:04")),
			escapeMarkdownV2(score),
		)
	}

	if hidden := len(confident) - len(shown); hidden > 0 {
		fmt.Fprintf(&b, "\n_and %d more_\n", hidden)
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
