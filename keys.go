package marketcache

import (
	"crypto/sha1"
	"fmt"
	"slices"
	"strings"
)

// SearchSymbol is the cache identity of search results, which belong to no ticker.
const SearchSymbol = "_SEARCH_"

const (
	priceKey   = "price"
	summaryTag = "summary:"
	chartTag   = "chart:"
	searchTag  = "search:"
)

// NormalizeSymbol returns the cache identity of a ticker: trimmed and uppercase.
func NormalizeSymbol(ticker string) string { return strings.ToUpper(strings.TrimSpace(ticker)) }

// normalizeSymbols uppercases, deduplicates and sorts tickers, dropping empty ones.
func normalizeSymbols(tickers []string) []string {
	symbols := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if s := NormalizeSymbol(t); s != "" {
			symbols = append(symbols, s)
		}
	}
	slices.Sort(symbols)
	return slices.Compact(symbols)
}

// PriceKey returns the cache key of the live price class.
func PriceKey() string { return priceKey }

// normalizeModules trims, deduplicates and sorts module names.
func normalizeModules(modules []string) []string {
	list := make([]string, 0, len(modules))
	for _, m := range modules {
		if m = strings.TrimSpace(m); m != "" {
			list = append(list, m)
		}
	}
	slices.Sort(list)
	return slices.Compact(list)
}

// SummaryKey returns the cache key of a fundamentals summary.
//
// Modules are sorted so that the same set always maps to the same key.
func SummaryKey(modules []string) string {
	return summaryTag + strings.Join(normalizeModules(modules), ",")
}

// ChartKey returns the cache key of a chart series.
func ChartKey(rng, interval string) string {
	return chartTag + strings.ToLower(rng) + ":" + strings.ToLower(interval)
}

// normalizeQuery is the cache identity of a search query.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// maxKeyQuery is the number of characters of a query kept in its cache key.
// Keys must fit the 191 characters of an indexed column.
const maxKeyQuery = 160

// SearchKey returns the cache key of a search.
//
// The options are hashed so that two searches for the same text with
// different options do not share an entry. A long query is truncated and
// suffixed with its own hash.
func SearchKey(query string, opts SearchOptions) string {
	h := sha1.Sum([]byte(fmt.Sprintf("q=%d;n=%d", opts.QuotesCount, opts.NewsCount)))
	q := normalizeQuery(query)
	if r := []rune(q); len(r) > maxKeyQuery {
		qh := sha1.Sum([]byte(q))
		q = fmt.Sprintf("%s#%x", string(r[:maxKeyQuery-17]), qh[:8])
	}
	return fmt.Sprintf("%s%x:%s", searchTag, h[:4], q)
}
