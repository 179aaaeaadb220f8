package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/dexsentinel/internal/anomaly"
	"github.com/Alias1177/dexsentinel/internal/baseline"
	"github.com/Alias1177/dexsentinel/internal/config"
	"github.com/Alias1177/dexsentinel/internal/describe"
	"github.com/Alias1177/dexsentinel/internal/monitor"
	"github.com/Alias1177/dexsentinel/internal/notify"
	"github.com/Alias1177/dexsentinel/internal/report"
	"github.com/Alias1177/dexsentinel/internal/source/dexscreener"
	"github.com/Alias1177/dexsentinel/internal/source/pumpfun"
)

// BuildRunner assembles a monitor run from the configuration. The returned
// closer releases the baseline store and must be called when done.
func BuildRunner(ctx context.Context, cfg *config.Config) (*monitor.Runner, io.Closer, error) {
	src, err := buildSource(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, closer, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	notifier, err := BuildNotifier(cfg)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}

	r := &monitor.Runner{
		Store:         store,
		Source:        src,
		Classifier:    anomaly.NewClassifier(cfg.Thresholds()),
		Formatter:     report.NewFormatter(cfg.ReportTitle, cfg.MetricKind()),
		Notifier:      notifier,
		NotifyOnEmpty: cfg.NotifyOnEmpty,
		Logger:        log.With().Str("component", "monitor").Logger(),
	}
	if cfg.DescribeAnomalies {
		r.Describer = describe.NewDescriber(cfg.RequestTimeout, cfg.RequestsPerSec)
	}
	return r, closer, nil
}

// BuildNotifier returns every configured sink, or nil when there is none.
// A Telegram bot that cannot be reached is logged and left out so the
// other sinks still deliver.
func BuildNotifier(cfg *config.Config) (notify.Notifier, error) {
	var sinks notify.Multi

	if cfg.Webhook != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.Webhook, cfg.RequestTimeout))
	}

	if cfg.TelegramToken != "" {
		chatID, err := cfg.TelegramChat()
		if err != nil {
			return nil, err
		}
		tg, err := notify.NewTelegram(notify.TelegramOptions{
			Token:      cfg.TelegramToken,
			ChatID:     chatID,
			HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
		})
		if err != nil {
			log.Error().Err(err).Msg("Telegram sink disabled")
		} else {
			sinks = append(sinks, tg)
		}
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}

func buildSource(cfg *config.Config) (monitor.Source, error) {
	switch cfg.Source {
	case config.SourceDexScreener:
		return dexscreener.NewClient(dexscreener.ClientOptions{
			BaseURL:         cfg.DexScreenerURL,
			Chain:           cfg.DexScreenerChain,
			Window:          cfg.VolumeWindow,
			Metric:          cfg.MetricKind(),
			RequestTimeout:  cfg.RequestTimeout,
			RequestsPerSec:  cfg.RequestsPerSec,
			MaxRetries:      cfg.FetchRetries,
			MaxRetryTimeout: cfg.FetchRetryTimeout,
		}), nil
	case config.SourcePumpFun:
		return pumpfun.NewClient(pumpfun.ClientOptions{
			BaseURL:         cfg.PumpFunURL,
			Limit:           cfg.PumpFunLimit,
			RequestTimeout:  cfg.RequestTimeout,
			RequestsPerSec:  cfg.RequestsPerSec,
			MaxRetries:      cfg.FetchRetries,
			MaxRetryTimeout: cfg.FetchRetryTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func buildStore(ctx context.Context, cfg *config.Config) (baseline.Store, io.Closer, error) {
	dsn := cfg.BaselinePostgresDSN()
	if dsn == "" {
		return baseline.NewFileStore(cfg.BaselineFile), nopCloser{}, nil
	}

	pg, err := baseline.OpenPostgres(ctx, dsn, cfg.BaselineName)
	if err != nil {
		return nil, nil, fmt.Errorf("opening baseline database: %w", err)
	}
	return pg, pg, nil
}
