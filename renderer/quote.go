package renderer

import (
	"maps"
	"slices"

	"github.com/etnz/marketcache"
)

// QuoteMarkdown renders a single quote.
func QuoteMarkdown(q *marketcache.Quote) string {
	return renderTemplate("quote", "quote.md", nil, q)
}

type quotesView struct {
	Quotes  []marketcache.Quote
	Missing []string
}

// QuotesMarkdown renders a batch of quotes ordered by ticker. Requested
// tickers absent from quotes are listed as unavailable.
func QuotesMarkdown(requested []string, quotes map[string]marketcache.Quote) string {
	v := quotesView{}
	for _, sym := range slices.Sorted(maps.Keys(quotes)) {
		v.Quotes = append(v.Quotes, quotes[sym])
	}
	for _, sym := range requested {
		if _, ok := quotes[sym]; !ok && !slices.Contains(v.Missing, sym) {
			v.Missing = append(v.Missing, sym)
		}
	}
	return renderTemplate("quotes", "quotes.md", nil, v)
}
