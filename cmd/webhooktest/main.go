// Command webhooktest sends a fixed message through every configured sink
// to check webhook URLs and bot credentials.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/dexsentinel/internal/app"
	"github.com/Alias1177/dexsentinel/internal/config"
)

const testMessage = "[test] This is an automated test message from the market monitor."

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	notifier, err := app.BuildNotifier(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize notifier")
	}
	if notifier == nil {
		log.Fatal().Msg("WEBHOOK_NEWCOINS or TELEGRAM_BOT_TOKEN must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.RequestTimeout)
	defer cancel()

	if err := notifier.Notify(ctx, testMessage); err != nil {
		log.Error().Err(err).Msg("Test message failed, check the webhook URL and bot settings")
		os.Exit(1)
	}

	log.Info().Msg("Test message sent")
	fmt.Println("🎯 Test message delivered")
}
