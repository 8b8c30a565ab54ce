package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/date"
	"github.com/shopspring/decimal"
)

// intradaySteps maps chart intervals to their duration and the provider
// interval they are resampled from.
var intradaySteps = map[string]struct {
	step     time.Duration
	provider string
}{
	"1m":  {time.Minute, "1m"},
	"2m":  {2 * time.Minute, "1m"},
	"5m":  {5 * time.Minute, "5m"},
	"15m": {15 * time.Minute, "5m"},
	"30m": {30 * time.Minute, "5m"},
	"60m": {time.Hour, "1h"},
	"90m": {90 * time.Minute, "5m"},
	"1h":  {time.Hour, "1h"},
}

// eodPeriods maps chart intervals to end-of-day periods.
var eodPeriods = map[string]string{"1d": "d", "1wk": "w", "1mo": "m"}

// intradayDays is the number of trading days of intraday ranges.
var intradayDays = map[string]int{"1d": 1, "5d": 5}

// FetchChart returns the bars of symbol over rng (e.g. "5d", "1y") by interval.
func (c *Client) FetchChart(ctx context.Context, symbol, rng, interval string) (marketcache.Chart, error) {
	ticker := c.Ticker(symbol)
	lookback, err := date.ParseLookback(rng)
	if err != nil {
		return marketcache.Chart{}, err
	}
	today := date.On(c.now())

	var bars []marketcache.Bar
	if s, ok := intradaySteps[interval]; ok {
		days, ok := intradayDays[rng]
		if !ok {
			// Intraday intervals beyond a few days are not kept by the provider.
			days = lookback.Range(today).Days()
		}
		bars, err = c.fetchIntraday(ctx, ticker, today, days, s.provider)
		if err == nil {
			bars = resample(bars, s.step)
		}
	} else if period, ok := eodPeriods[interval]; ok {
		span := lookback.Range(today)
		var content []eod
		content, err = c.fetchEOD(ctx, ticker, span.From, span.To, period)
		for _, e := range content {
			bars = append(bars, marketcache.Bar{
				Time:   e.Date.Time(),
				Open:   e.Open.Decimal,
				High:   e.High.Decimal,
				Low:    e.Low.Decimal,
				Close:  e.Close.Decimal,
				Volume: e.Volume.IntPart(),
			})
		}
	} else {
		return marketcache.Chart{}, fmt.Errorf("unsupported chart interval %q", interval)
	}
	if err != nil {
		return marketcache.Chart{}, err
	}
	if len(bars) == 0 {
		return marketcache.Chart{}, fmt.Errorf("%s chart of %s: %w", rng, ticker, marketcache.ErrNoData)
	}
	return marketcache.Chart{Range: rng, Interval: interval, Bars: bars}, nil
}

// intraday is one item of the intraday API response.
//
//	{
//	  "timestamp": 1717421400,
//	  "gmtoffset": 0,
//	  "datetime": "2024-06-03 13:30:00",
//	  "open": 192.9,
//	  "high": 193.1,
//	  "low": 192.5,
//	  "close": 192.8,
//	  "volume": 1183744
//	}
type intraday struct {
	Timestamp int64  `json:"timestamp"`
	Open      number `json:"open"`
	High      number `json:"high"`
	Low       number `json:"low"`
	Close     number `json:"close"`
	Volume    number `json:"volume"`
}

// fetchIntraday returns the intraday bars of the last days trading days up to today.
func (c *Client) fetchIntraday(ctx context.Context, ticker string, today date.Date, days int, interval string) ([]marketcache.Bar, error) {
	// https://eodhd.com/api/intraday/AAPL.US?interval=5m&from=1717372800&to=1717459200&api_token=demo&fmt=json
	// Reach back over week-ends and holidays, then keep the last trading days.
	from := today.Add(-(days*7/5 + 4))
	query := url.Values{}
	query.Set("interval", interval)
	query.Set("from", strconv.FormatInt(from.Time().Unix(), 10))
	query.Set("to", strconv.FormatInt(today.Add(1).Time().Unix(), 10))
	content := make([]intraday, 0)
	if err := c.jwget(ctx, "/intraday/"+url.PathEscape(ticker), query, &content); err != nil {
		return nil, err
	}

	bars := make([]marketcache.Bar, 0, len(content))
	for _, i := range content {
		if i.Close.Sign() == 0 {
			continue
		}
		bars = append(bars, marketcache.Bar{
			Time:   time.Unix(i.Timestamp, 0).UTC(),
			Open:   i.Open.Decimal,
			High:   i.High.Decimal,
			Low:    i.Low.Decimal,
			Close:  i.Close.Decimal,
			Volume: i.Volume.IntPart(),
		})
	}
	return lastDays(bars, days), nil
}

// lastDays keeps the bars of the last n distinct days. bars must be in time order.
func lastDays(bars []marketcache.Bar, n int) []marketcache.Bar {
	seen := 0
	var current date.Date
	for i := len(bars) - 1; i >= 0; i-- {
		if day := date.On(bars[i].Time); day != current {
			current = day
			seen++
			if seen > n {
				return bars[i+1:]
			}
		}
	}
	return bars
}

// resample merges consecutive bars into bars of step duration. bars must be in time order.
func resample(bars []marketcache.Bar, step time.Duration) []marketcache.Bar {
	var out []marketcache.Bar
	for _, b := range bars {
		start := b.Time.Truncate(step)
		if n := len(out); n > 0 && out[n-1].Time.Equal(start) {
			last := &out[n-1]
			last.High = decimal.Max(last.High, b.High)
			last.Low = decimal.Min(last.Low, b.Low)
			last.Close = b.Close
			last.Volume += b.Volume
			continue
		}
		b.Time = start
		out = append(out, b)
	}
	return out
}
