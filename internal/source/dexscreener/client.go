package dexscreener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/dexsentinel/internal/model"
	httpClient "github.com/Alias1177/dexsentinel/internal/platform/http"
)

const DefaultBaseURL = "https://api.dexscreener.com"

// Client is the DexScreener pairs API client
type Client struct {
	baseURL    string
	chain      string
	window     string
	metric     model.MetricKind
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new DexScreener client
type ClientOptions struct {
	BaseURL         string
	Chain           string
	Window          string // m5, h1, h6 or h24
	Metric          model.MetricKind
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// Windows lists the volume and price change windows the API reports.
var Windows = []string{"m5", "h1", "h6", "h24"}

// NewClient creates a new DexScreener API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetries:      options.MaxRetries,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	// Apply defaults if not set
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	if options.Chain == "" {
		options.Chain = "solana"
	}
	if options.Window == "" {
		options.Window = "h24"
	}
	if options.Metric == "" {
		options.Metric = model.MetricVolume
	}

	return &Client{
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		chain:      options.Chain,
		window:     options.Window,
		metric:     options.Metric,
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "dexscreener_client").Logger(),
	}
}

// Name identifies the source in logs and baseline names.
func (c *Client) Name() string {
	return "dexscreener-" + c.chain
}

// Fetch returns the normalized pairs of the configured chain. Pairs without
// an address or without the configured metric are skipped.
func (c *Client) Fetch(ctx context.Context) ([]model.Record, error) {
	url := fmt.Sprintf("%s/latest/dex/pairs/%s", c.baseURL, c.chain)
	c.logger.Debug().Str("url", url).Msg("Fetching pairs")

	var data PairsResponse
	if err := c.httpClient.GetJSON(ctx, url, &data); err != nil {
		return nil, fmt.Errorf("%w: dexscreener: %v", model.ErrDataUnavailable, err)
	}

	records := make([]model.Record, 0, len(data.Pairs))
	skipped := 0
	for _, p := range data.Pairs {
		r, err := c.normalize(p)
		if err != nil {
			skipped++
			c.logger.Debug().Err(err).Msg("Skipping pair")
			continue
		}
		records = append(records, r)
	}

	c.logger.Debug().Int("count", len(records)).Int("skipped", skipped).Msg("Fetched pairs")
	return records, nil
}

func (c *Client) normalize(p Pair) (model.Record, error) {
	var metric *float64
	switch c.metric {
	case model.MetricMarketCap:
		metric = p.MarketCap
	default:
		metric = p.Volume[c.window]
	}

	opts := []model.RecordOption{
		model.WithURL(p.URL),
		model.WithPriceChange(p.PriceChange[c.window]),
	}
	if p.BaseToken != nil {
		opts = append(opts, model.WithName(p.BaseToken.Name), model.WithSymbol(p.BaseToken.Symbol))
	}
	if p.PairCreatedAt != nil && *p.PairCreatedAt > 0 {
		opts = append(opts, model.WithCreatedAt(time.UnixMilli(*p.PairCreatedAt)))
	}

	return model.NewRecord(p.PairAddress, metric, opts...)
}
