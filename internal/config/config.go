package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/dexsentinel/internal/anomaly"
	"github.com/Alias1177/dexsentinel/internal/baseline"
	"github.com/Alias1177/dexsentinel/internal/model"
	"github.com/Alias1177/dexsentinel/internal/source/dexscreener"
)

const (
	SourceDexScreener = "dexscreener"
	SourcePumpFun     = "pumpfun"
)

// Config holds all application configuration
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Source           string `envconfig:"SOURCE" default:"dexscreener"`
	Metric           string `envconfig:"METRIC"` // volume or market_cap, defaults per source
	DexScreenerURL   string `envconfig:"DEXSCREENER_URL" default:"https://api.dexscreener.com"`
	DexScreenerChain string `envconfig:"DEXSCREENER_CHAIN" default:"solana"`
	VolumeWindow     string `envconfig:"VOLUME_WINDOW" default:"h24"`
	PumpFunURL       string `envconfig:"PUMPFUN_URL" default:"https://frontend-api.pump.fun"`
	PumpFunLimit     int    `envconfig:"PUMPFUN_LIMIT" default:"50"`

	BaselineFile string `envconfig:"BASELINE_FILE" default:"last_volumes.json"`
	BaselineDSN  string `envconfig:"BASELINE_DSN"`
	BaselineName string `envconfig:"BASELINE_NAME"` // defaults to "<source>-<metric>"

	// Used to build the Postgres DSN when BASELINE_DSN is empty.
	BaselineDBHost     string `envconfig:"BASELINE_DB_HOST"`
	BaselineDBPort     string `envconfig:"BASELINE_DB_PORT" default:"5432"`
	BaselineDBUser     string `envconfig:"BASELINE_DB_USER"`
	BaselineDBPassword string `envconfig:"BASELINE_DB_PASSWORD"`
	BaselineDBName     string `envconfig:"BASELINE_DB_NAME"`
	BaselineDBSSLMode  string `envconfig:"BASELINE_DB_SSLMODE" default:"disable"`

	RatioThreshold   float64       `envconfig:"RATIO_THRESHOLD" default:"5"`
	PercentThreshold float64       `envconfig:"PERCENT_THRESHOLD" default:"50"` // percent
	Magnitude        string        `envconfig:"MAGNITUDE" default:"increase"`
	MinAge           time.Duration `envconfig:"MIN_AGE" default:"0s"` // e.g. 240h

	Webhook        string `envconfig:"WEBHOOK_NEWCOINS"`
	TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID"`
	NotifyOnEmpty  bool   `envconfig:"NOTIFY_ON_EMPTY" default:"false"`

	DescribeAnomalies bool   `envconfig:"DESCRIBE_ANOMALIES" default:"false"`
	ReportTitle       string `envconfig:"REPORT_TITLE"`

	RequestTimeout    time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	RequestsPerSec    int           `envconfig:"REQUESTS_PER_SEC" default:"5"`
	FetchRetries      int           `envconfig:"FETCH_RETRIES" default:"3"`
	FetchRetryTimeout time.Duration `envconfig:"FETCH_RETRY_TIMEOUT" default:"30s"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))
	cfg.Metric = strings.ToLower(strings.TrimSpace(cfg.Metric))
	if cfg.Metric == "" {
		cfg.Metric = string(model.MetricVolume)
		if cfg.Source == SourcePumpFun {
			cfg.Metric = string(model.MetricMarketCap)
		}
	}
	if cfg.BaselineName == "" {
		cfg.BaselineName = cfg.Source + "-" + cfg.Metric
	}
	if cfg.ReportTitle == "" {
		cfg.ReportTitle = defaultTitle(cfg.Source, cfg.MetricKind())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceDexScreener:
		if !validWindow(c.VolumeWindow) {
			return fmt.Errorf("VOLUME_WINDOW must be one of %v, got %q", dexscreener.Windows, c.VolumeWindow)
		}
	case SourcePumpFun:
		if c.MetricKind() != model.MetricMarketCap {
			return fmt.Errorf("source %s only reports market_cap, got METRIC=%q", SourcePumpFun, c.Metric)
		}
		if c.Thresholds().Magnitude == anomaly.MagnitudePriceChange {
			return fmt.Errorf("source %s reports no price change, MAGNITUDE=%s would never alert", SourcePumpFun, anomaly.MagnitudePriceChange)
		}
	default:
		return fmt.Errorf("unknown SOURCE %q", c.Source)
	}

	if !c.MetricKind().Valid() {
		return fmt.Errorf("unknown METRIC %q", c.Metric)
	}
	if err := c.Thresholds().Validate(); err != nil {
		return err
	}
	if c.TelegramToken != "" {
		if _, err := c.TelegramChat(); err != nil {
			return err
		}
	}
	if c.RequestsPerSec <= 0 {
		return fmt.Errorf("REQUESTS_PER_SEC must be positive, got %d", c.RequestsPerSec)
	}
	return nil
}

// MetricKind returns the configured metric.
func (c *Config) MetricKind() model.MetricKind {
	return model.MetricKind(c.Metric)
}

// Thresholds returns the alert predicate.
func (c *Config) Thresholds() anomaly.Thresholds {
	return anomaly.Thresholds{
		Ratio:     c.RatioThreshold,
		Percent:   c.PercentThreshold,
		Magnitude: anomaly.Magnitude(strings.ToLower(c.Magnitude)),
		MinAge:    c.MinAge,
	}
}

// BaselinePostgresDSN returns the Postgres DSN for the baseline store, or ""
// when the file store should be used. BASELINE_DSN takes precedence over the
// BASELINE_DB_* parameters.
func (c *Config) BaselinePostgresDSN() string {
	if c.BaselineDSN != "" {
		return c.BaselineDSN
	}
	if c.BaselineDBHost == "" {
		return ""
	}
	return baseline.ConnectionParams{
		Host:     c.BaselineDBHost,
		Port:     c.BaselineDBPort,
		User:     c.BaselineDBUser,
		Password: c.BaselineDBPassword,
		DBName:   c.BaselineDBName,
		SSLMode:  c.BaselineDBSSLMode,
	}.DSN()
}

// TelegramChat parses TELEGRAM_CHAT_ID.
func (c *Config) TelegramChat() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.TelegramChatID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("TELEGRAM_CHAT_ID must be a numeric chat id, got %q", c.TelegramChatID)
	}
	return id, nil
}

func validWindow(w string) bool {
	for _, v := range dexscreener.Windows {
		if v == w {
			return true
		}
	}
	return false
}

func defaultTitle(source string, metric model.MetricKind) string {
	name := "DexScreener"
	if source == SourcePumpFun {
		name = "pump.fun"
	}
	return fmt.Sprintf("%s %s monitor", name, strings.ToLower(metric.Label()))
}
