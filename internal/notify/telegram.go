package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/dexsentinel/internal/model"
)

// MaxTelegramRunes is the message length limit of the Bot API.
const MaxTelegramRunes = 4096

// Telegram sends reports to a single chat through the Bot API.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// TelegramOptions configures a Telegram notifier.
type TelegramOptions struct {
	Token      string
	ChatID     int64
	Endpoint   string // Bot API endpoint format, defaults to tgbotapi.APIEndpoint
	HTTPClient *http.Client
}

// NewTelegram authenticates the bot and returns a notifier for the chat.
func NewTelegram(opts TelegramOptions) (*Telegram, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, opts.Endpoint, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}

	logger := log.With().Str("component", "telegram_notifier").Logger()
	logger.Debug().Str("bot", bot.Self.UserName).Msg("Telegram bot authorized")

	return &Telegram{bot: bot, chatID: opts.ChatID, logger: logger}, nil
}

// Notify implements Notifier. Long reports are split into several messages.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	for i, part := range splitMessage(text, MaxTelegramRunes) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", model.ErrNotifyFailed, err)
		}
		msg := tgbotapi.NewMessage(t.chatID, part)
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("%w: telegram part %d: %v", model.ErrNotifyFailed, i+1, err)
		}
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit runes, preferring line
// boundaries. Lines longer than limit are cut mid-line.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if s := strings.TrimRight(cur.String(), "\n"); s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > limit {
			flush()
		}
		for n > limit {
			r := []rune(line)
			parts = append(parts, string(r[:limit]))
			line = string(r[limit:])
			n -= limit
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return parts
}
