package marketcache

import (
	"encoding/json"
	"time"

	"github.com/etnz/marketcache/date"
	"github.com/shopspring/decimal"
)

// Quote is the normalized current price of a ticker.
//
// It has the same shape whether it comes from the provider, a fresh cache
// entry or a stale fallback. LastUpdated tells which.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Currency      string          `json:"currency,omitempty"`
	Sector        string          `json:"sector,omitempty"`
	Industry      string          `json:"industry,omitempty"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}

// valid reports whether the quote carries a market price.
func (q Quote) valid() bool { return q.Price.Sign() != 0 }

// Summary holds fundamentals modules for a ticker, as returned by the provider.
type Summary struct {
	Symbol      string                     `json:"symbol"`
	Name        string                     `json:"name,omitempty"`
	Sector      string                     `json:"sector,omitempty"`
	Industry    string                     `json:"industry,omitempty"`
	Currency    string                     `json:"currency,omitempty"`
	Modules     map[string]json.RawMessage `json:"modules"`
	LastUpdated time.Time                  `json:"lastUpdated"`
}

func (s Summary) valid() bool { return len(s.Modules) > 0 }

// Bar is one chart interval.
type Bar struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Chart is a price series for a chart range and interval, e.g. "5d" by "30m".
type Chart struct {
	Symbol      string    `json:"symbol"`
	Range       string    `json:"range"`
	Interval    string    `json:"interval"`
	Bars        []Bar     `json:"bars"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func (c Chart) valid() bool { return len(c.Bars) > 0 }

// SearchOptions tunes a free-text search.
type SearchOptions struct {
	QuotesCount int `json:"quotesCount"`
	NewsCount   int `json:"newsCount"`
}

// SearchHit is a security matching a search.
type SearchHit struct {
	Symbol        string          `json:"symbol"`
	Exchange      string          `json:"exchange"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Country       string          `json:"country,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	ISIN          string          `json:"isin,omitempty"`
	PreviousClose decimal.Decimal `json:"previousClose"`
}

// NewsItem is an article matching a search.
type NewsItem struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
	Symbols   []string  `json:"symbols,omitempty"`
}

// SearchResult is the answer to a free-text search.
type SearchResult struct {
	Query       string        `json:"query"`
	Options     SearchOptions `json:"options"`
	Quotes      []SearchHit   `json:"quotes"`
	News        []NewsItem    `json:"news"`
	LastUpdated time.Time     `json:"lastUpdated"`
}

// Point is one historical daily close.
type Point struct {
	Date  date.Date       `json:"date"`
	Price decimal.Decimal `json:"price"`
}
