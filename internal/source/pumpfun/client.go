package pumpfun

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/dexsentinel/internal/model"
	httpClient "github.com/Alias1177/dexsentinel/internal/platform/http"
)

const (
	DefaultBaseURL = "https://frontend-api.pump.fun"
	coinURLPrefix  = "https://pump.fun/coin/"
)

// Coin is one entry of the /coins listing.
type Coin struct {
	Mint             string   `json:"mint"`
	Name             string   `json:"name"`
	Symbol           string   `json:"symbol"`
	Description      string   `json:"description"`
	USDMarketCap     *float64 `json:"usd_market_cap"`
	CreatedTimestamp *int64   `json:"created_timestamp"` // unix millis
	Complete         bool     `json:"complete"`
}

// Client fetches the top pump.fun coins by market cap
type Client struct {
	baseURL    string
	limit      int
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new pump.fun client
type ClientOptions struct {
	BaseURL         string
	Limit           int
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new pump.fun client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	if options.Limit <= 0 {
		options.Limit = 50
	}

	return &Client{
		baseURL: strings.TrimRight(options.BaseURL, "/"),
		limit:   options.Limit,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetries:      options.MaxRetries,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "pumpfun_client").Logger(),
	}
}

// Name identifies the source in logs and baseline names.
func (c *Client) Name() string { return "pumpfun" }

// Fetch returns the coins ordered by market cap, normalized to records
// keyed by mint address with the USD market cap as metric.
func (c *Client) Fetch(ctx context.Context) ([]model.Record, error) {
	q := url.Values{}
	q.Set("offset", "0")
	q.Set("limit", strconv.Itoa(c.limit))
	q.Set("sort", "market_cap")
	q.Set("order", "DESC")
	q.Set("includeNsfw", "false")
	u := c.baseURL + "/coins?" + q.Encode()

	c.logger.Debug().Str("url", u).Msg("Fetching coins")

	var coins []Coin
	if err := c.httpClient.GetJSON(ctx, u, &coins); err != nil {
		return nil, fmt.Errorf("%w: pumpfun: %v", model.ErrDataUnavailable, err)
	}

	records := make([]model.Record, 0, len(coins))
	for _, coin := range coins {
		r, err := normalize(coin)
		if err != nil {
			c.logger.Debug().Err(err).Msg("Skipping coin")
			continue
		}
		records = append(records, r)
	}

	c.logger.Debug().Int("count", len(records)).Msg("Fetched coins")
	return records, nil
}

func normalize(coin Coin) (model.Record, error) {
	opts := []model.RecordOption{
		model.WithName(coin.Name),
		model.WithSymbol(coin.Symbol),
		model.WithDescription(coin.Description),
	}
	if mint := strings.TrimSpace(coin.Mint); mint != "" {
		opts = append(opts, model.WithURL(coinURLPrefix+mint))
	}
	if coin.CreatedTimestamp != nil && *coin.CreatedTimestamp > 0 {
		opts = append(opts, model.WithCreatedAt(time.UnixMilli(*coin.CreatedTimestamp)))
	}
	return model.NewRecord(coin.Mint, coin.USDMarketCap, opts...)
}
