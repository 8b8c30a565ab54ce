package marketcache

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Class is a kind of cached market data, each with its own staleness threshold.
type Class int

const (
	ClassPrice Class = iota
	ClassSummary
	ClassSearch
	ClassNews
	ClassChartIntraday
	ClassChart
	ClassHistory
)

func (c Class) String() string {
	switch c {
	case ClassPrice:
		return "price"
	case ClassSummary:
		return "summary"
	case ClassSearch:
		return "search"
	case ClassNews:
		return "news"
	case ClassChartIntraday:
		return "chart_intraday"
	case ClassChart:
		return "chart"
	case ClassHistory:
		return "history"
	default:
		return "unknown"
	}
}

// Policy maps each class to the maximum age of a cached answer.
//
// It is the only place where thresholds live.
type Policy struct {
	Price         time.Duration
	Summary       time.Duration
	Search        time.Duration
	News          time.Duration
	ChartIntraday time.Duration
	Chart         time.Duration
	// MaxGap is the longest run of calendar days without a cached daily close
	// that a historical series may contain and still be considered complete.
	// A negative MaxGap disables the check.
	MaxGap int
}

// DefaultPolicy returns the default thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Price:         15 * time.Minute,
		Summary:       7 * 24 * time.Hour,
		Search:        2 * time.Hour,
		News:          2 * time.Hour,
		ChartIntraday: 15 * time.Minute,
		Chart:         24 * time.Hour,
		MaxGap:        7,
	}
}

// withDefaults returns p with every zero threshold set to its default.
func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	for _, f := range []struct{ v, d *time.Duration }{
		{&p.Price, &def.Price},
		{&p.Summary, &def.Summary},
		{&p.Search, &def.Search},
		{&p.News, &def.News},
		{&p.ChartIntraday, &def.ChartIntraday},
		{&p.Chart, &def.Chart},
	} {
		if *f.v == 0 {
			*f.v = *f.d
		}
	}
	if p.MaxGap == 0 {
		p.MaxGap = def.MaxGap
	}
	return p
}

// MaxAge returns how old a cached entry of class c may be and still be served.
//
// Historical series have no age limit, they are checked for completeness instead.
func (p Policy) MaxAge(c Class) time.Duration {
	switch c {
	case ClassPrice:
		return p.Price
	case ClassSummary:
		return p.Summary
	case ClassSearch:
		return p.Search
	case ClassNews:
		return p.News
	case ClassChartIntraday:
		return p.ChartIntraday
	case ClassChart:
		return p.Chart
	default:
		return 0
	}
}

// Fresh reports whether an entry of class c updated at lastUpdated can be served at now.
func (p Policy) Fresh(c Class, lastUpdated, now time.Time) bool {
	return now.Sub(lastUpdated) < p.MaxAge(c)
}

// intradayRanges are the chart ranges that reflect live trading.
var intradayRanges = map[string]bool{"1d": true, "5d": true}

// chartRanges are the supported chart ranges.
var chartRanges = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

// chartIntervals are the supported chart intervals.
var chartIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true, "60m": true, "90m": true, "1h": true,
	"1d": true, "1wk": true, "1mo": true,
}

// ChartRanges returns the supported chart ranges, sorted.
func ChartRanges() []string { return slices.Sorted(maps.Keys(chartRanges)) }

// ChartIntervals returns the supported chart intervals, sorted.
func ChartIntervals() []string { return slices.Sorted(maps.Keys(chartIntervals)) }

// ChartClass returns the class of a chart range.
func ChartClass(rng string) Class {
	if intradayRanges[strings.ToLower(rng)] {
		return ClassChartIntraday
	}
	return ClassChart
}

