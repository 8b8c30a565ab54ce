// Package eodhd implements marketcache.Upstream on top of the EOD Historical Data API.
//
// See https://eodhd.com/financial-apis/ for the API documentation.
package eodhd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/etnz/marketcache"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the root of the EODHD API.
const DefaultBaseURL = "https://eodhd.com/api"

// Config configures a Client.
type Config struct {
	APIKey string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Exchange is the EODHD exchange code of bare tickers, "US" by default.
	Exchange string
	// RequestsPerSecond is shared by every request of the client, 10 by default.
	RequestsPerSecond float64
	Burst             int
	// HTTPClient defaults to a client on http.DefaultTransport.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is an EODHD API client. It is safe for concurrent use.
type Client struct {
	apiKey   string
	base     string
	exchange string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger
	now      func() time.Time
}

var _ marketcache.Upstream = (*Client)(nil)

// New returns a Client for cfg.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Exchange == "" {
		cfg.Exchange = "US"
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	base := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		base = cfg.HTTPClient.Transport
	}
	client := &http.Client{Transport: &logTransport{base: base, logger: cfg.Logger}}
	if cfg.HTTPClient != nil {
		client.Timeout = cfg.HTTPClient.Timeout
	}

	c := &Client{
		apiKey:   cfg.APIKey,
		base:     strings.TrimSuffix(cfg.BaseURL, "/"),
		exchange: strings.ToUpper(cfg.Exchange),
		http:     client,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:   cfg.Logger,
		now:      time.Now,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "eodhd",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn("provider circuit breaker changed state",
				slog.String("name", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// Only provider-side failures count against the provider.
			var status *StatusError
			if errors.As(err, &status) {
				return status.Code < 500 && status.Code != http.StatusTooManyRequests
			}
			return err == nil || errors.Is(err, marketcache.ErrNoData) || errors.Is(err, context.Canceled)
		},
	})
	return c
}

// indexPrefix marks symbols quoted on the INDX virtual exchange.
const indexPrefix = "^"

// Ticker returns the EODHD ticker of a symbol.
//
// Indexes like "^GSPC" become "GSPC.INDX", bare tickers get the client
// exchange ("AAPL" becomes "AAPL.US") and qualified tickers are kept.
func (c *Client) Ticker(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if index, ok := strings.CutPrefix(symbol, indexPrefix); ok {
		return index + ".INDX"
	}
	if strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + "." + c.exchange
}

// exchangeCurrencies are the trading currencies of common EODHD exchanges.
var exchangeCurrencies = map[string]string{
	"US":     "USD",
	"LSE":    "GBX",
	"XETRA":  "EUR",
	"F":      "EUR",
	"PA":     "EUR",
	"AS":     "EUR",
	"BR":     "EUR",
	"MI":     "EUR",
	"MC":     "EUR",
	"LS":     "EUR",
	"EUFUND": "EUR",
	"SW":     "CHF",
	"TO":     "CAD",
	"V":      "CAD",
	"AU":     "AUD",
	"HK":     "HKD",
	"T":      "JPY",
	"KO":     "KRW",
	"ST":     "SEK",
	"CO":     "DKK",
	"OL":     "NOK",
}

// currencyOf returns the trading currency of a ticker, or "" when unknown.
func currencyOf(ticker string) string {
	if i := strings.LastIndex(ticker, "."); i >= 0 {
		return exchangeCurrencies[ticker[i+1:]]
	}
	return ""
}
