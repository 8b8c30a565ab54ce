package eodhd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/date"
)

// eod is one item of the end-of-day API response.
//
//	{
//	  "date": "2024-02-13",
//	  "open": 675.066,
//	  "high": 684.219,
//	  "low": 648.659,
//	  "close": 668.445,
//	  "adjusted_close": 67.705,
//	  "volume": 0
//	}
type eod struct {
	Date   date.Date `json:"date"`
	Open   number    `json:"open"`
	High   number    `json:"high"`
	Low    number    `json:"low"`
	Close  number    `json:"close"`
	Volume number    `json:"volume"`
}

// fetchEOD returns end-of-day bars of ticker in [from, to] by period "d", "w" or "m".
func (c *Client) fetchEOD(ctx context.Context, ticker string, from, to date.Date, period string) ([]eod, error) {
	// https://eodhd.com/api/eod/MCD.US?from=2024-01-05&to=2024-02-10&period=d&api_token=demo&fmt=json
	// Bounds are included in the response.
	query := url.Values{}
	query.Set("from", from.String())
	query.Set("to", to.String())
	query.Set("period", period)
	content := make([]eod, 0)
	if err := c.jwget(ctx, "/eod/"+url.PathEscape(ticker), query, &content); err != nil {
		return nil, err
	}
	return content, nil
}

// FetchDaily returns the daily closes of symbol in [from, to].
func (c *Client) FetchDaily(ctx context.Context, symbol string, from, to date.Date) ([]marketcache.Point, error) {
	ticker := c.Ticker(symbol)
	content, err := c.fetchEOD(ctx, ticker, from, to, "d")
	if err != nil {
		return nil, err
	}
	points := make([]marketcache.Point, 0, len(content))
	for _, e := range content {
		if e.Close.Sign() == 0 {
			continue
		}
		points = append(points, marketcache.Point{Date: e.Date, Price: e.Close.Decimal})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("daily closes of %s in [%s, %s]: %w", ticker, from, to, marketcache.ErrNoData)
	}
	return points, nil
}
