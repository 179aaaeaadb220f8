package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/dexsentinel/internal/app"
	"github.com/Alias1177/dexsentinel/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 2
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	printConfig(cfg)

	// 3. Wire the run
	runner, closer, err := app.BuildRunner(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize monitor")
		return 2
	}
	defer closer.Close()

	// 4. One cycle per scheduler tick
	started := time.Now()
	st := runner.Run(ctx)

	ev := log.Info()
	if st.Failed() {
		ev = log.Error()
	}
	ev.Str("source", st.Source).
		Int("records", st.Records).
		Int("anomalies", st.Anomalies).
		Int("baseline_keys", st.BaselineKeys).
		Bool("notified", st.Notified).
		AnErr("baseline_degraded", st.BaselineDegraded).
		AnErr("data_unavailable", st.DataUnavailable).
		AnErr("save_error", st.SaveErr).
		AnErr("aborted", st.Aborted).
		AnErr("notify_error", st.NotifyErr).
		Dur("elapsed", time.Since(started)).
		Int("exit_code", st.ExitCode()).
		Msg("Run finished")

	return st.ExitCode()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration without secrets
func printConfig(cfg *config.Config) {
	log.Debug().
		Str("Source", cfg.Source).
		Str("Metric", cfg.Metric).
		Str("Window", cfg.VolumeWindow).
		Str("BaselineFile", cfg.BaselineFile).
		Bool("BaselinePostgres", cfg.BaselineDSN != "").
		Str("BaselineName", cfg.BaselineName).
		Float64("RatioThreshold", cfg.RatioThreshold).
		Float64("PercentThreshold", cfg.PercentThreshold).
		Str("Magnitude", cfg.Magnitude).
		Dur("MinAge", cfg.MinAge).
		Bool("Webhook", cfg.Webhook != "").
		Bool("Telegram", cfg.TelegramToken != "").
		Bool("NotifyOnEmpty", cfg.NotifyOnEmpty).
		Bool("DescribeAnomalies", cfg.DescribeAnomalies).
		Msg("Configuration loaded")
}
