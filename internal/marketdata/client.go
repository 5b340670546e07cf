// Package marketdata fetches daily OHLCV history and live quotes from
// the Stooq public endpoints. All provider HTTP access goes through
// this package so rate limiting and parsing live in one place.
package marketdata

import (
	"time"

	"github.com/jmoretti/sibyl/pkg/config"
	"github.com/jmoretti/sibyl/pkg/httputil"
	"github.com/jmoretti/sibyl/pkg/logger"
)

// Client handles communication with the market data provider.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	config     config.ProviderConfig
}

// NewClient creates a provider client. The rate limit from the config
// is applied to the shared HTTP client so bulk syncs stay polite.
func NewClient(cfg config.ProviderConfig, log *logger.Logger) *Client {
	httpClient := httputil.New(log).
		WithTimeout(20 * time.Second).
		WithRateLimit(cfg.RatePerSecond, cfg.Burst)

	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("marketdata"),
		config:     cfg,
	}
}

// Quote is a scraped snapshot of a symbol's current state.
type Quote struct {
	Symbol    string
	Price     float64
	Change    float64 // percent, e.g. -1.25
	Date      time.Time
	FetchedAt time.Time
}

// BenchmarkSymbol returns the configured market index symbol.
func (c *Client) BenchmarkSymbol() string { return c.config.BenchmarkSymbol }

// VolIndexSymbol returns the configured volatility index symbol.
func (c *Client) VolIndexSymbol() string { return c.config.VolIndexSymbol }
