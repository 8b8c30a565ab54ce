package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/etnz/marketcache"
	"golang.org/x/sync/errgroup"
)

// maxRealtimeTickers is the number of tickers asked in a single real-time request.
const maxRealtimeTickers = 20

// realtime is one item of the real-time API response.
//
//	{
//	  "code": "AAPL.US",
//	  "timestamp": 1717444800,
//	  "open": 192.9,
//	  "close": 194.03,
//	  "previousClose": 192.25,
//	  "change": 1.78,
//	  "change_p": 0.9259
//	}
type realtime struct {
	Code          string `json:"code"`
	Close         number `json:"close"`
	PreviousClose number `json:"previousClose"`
	Change        number `json:"change"`
	ChangeP       number `json:"change_p"`
}

// fetchRealtime returns the live quotes of tickers, in one request.
func (c *Client) fetchRealtime(ctx context.Context, tickers []string) ([]realtime, error) {
	// https://eodhd.com/api/real-time/AAPL.US?s=VTI,EUR.FOREX&api_token=demo&fmt=json
	query := url.Values{}
	if len(tickers) > 1 {
		query.Set("s", strings.Join(tickers[1:], ","))
	}
	var raw json.RawMessage
	if err := c.jwget(ctx, "/real-time/"+url.PathEscape(tickers[0]), query, &raw); err != nil {
		return nil, err
	}
	// A single ticker comes back as an object, several as a list.
	items, err := oneOrMany[realtime](raw)
	if err != nil {
		return nil, fmt.Errorf("decoding real-time quotes: %w", err)
	}
	return items, nil
}

func (c *Client) quoteOf(r realtime) marketcache.Quote {
	return marketcache.Quote{
		Price:         r.Close.Decimal,
		Change:        r.Change.Decimal,
		ChangePercent: r.ChangeP.Decimal,
		Currency:      currencyOf(r.Code),
	}
}

// FetchQuote returns the live quote of symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (marketcache.Quote, error) {
	ticker := c.Ticker(symbol)
	items, err := c.fetchRealtime(ctx, []string{ticker})
	if err != nil {
		return marketcache.Quote{}, err
	}
	for _, r := range items {
		if strings.EqualFold(r.Code, ticker) && r.Close.Sign() != 0 {
			return c.quoteOf(r), nil
		}
	}
	return marketcache.Quote{}, fmt.Errorf("real-time quote of %s: %w", ticker, marketcache.ErrNoData)
}

// FetchQuoteBatch returns the live quotes of symbols, keyed by symbol.
//
// Symbols are asked by chunks of 20 tickers, concurrently. Symbols without
// a quote are missing from the result. The error of a failed chunk is
// returned with the quotes of the other chunks.
func (c *Client) FetchQuoteBatch(ctx context.Context, symbols []string) (map[string]marketcache.Quote, error) {
	// Several symbols can name the same ticker, e.g. AAPL and AAPL.US.
	symbolsOf := make(map[string][]string, len(symbols))
	tickers := make([]string, 0, len(symbols))
	for _, s := range symbols {
		t := c.Ticker(s)
		if _, dup := symbolsOf[t]; !dup {
			tickers = append(tickers, t)
		}
		symbolsOf[t] = append(symbolsOf[t], s)
	}

	var (
		mu     sync.Mutex
		quotes = make(map[string]marketcache.Quote, len(symbols))
		g      errgroup.Group
	)
	g.SetLimit(4)
	for chunk := range slices.Chunk(tickers, maxRealtimeTickers) {
		g.Go(func() error {
			items, err := c.fetchRealtime(ctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range items {
				if r.Close.Sign() == 0 {
					continue
				}
				for _, s := range symbolsOf[strings.ToUpper(r.Code)] {
					quotes[s] = c.quoteOf(r)
				}
			}
			return nil
		})
	}
	err := g.Wait()
	return quotes, err
}
