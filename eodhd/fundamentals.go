package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/marketcache"
)

// generalModule is always fetched, it holds the name and classification of the security.
const generalModule = "General"

// FetchSummary returns the fundamentals modules (e.g. "General", "Highlights",
// "Valuation") of symbol.
func (c *Client) FetchSummary(ctx context.Context, symbol string, modules []string) (marketcache.Summary, error) {
	// https://eodhd.com/api/fundamentals/AAPL.US?filter=General,Highlights&api_token=demo&fmt=json
	ticker := c.Ticker(symbol)
	filter := modules
	if !slices.Contains(filter, generalModule) {
		filter = append(slices.Clone(modules), generalModule)
	}
	query := url.Values{}
	query.Set("filter", strings.Join(filter, ","))

	var raw json.RawMessage
	if err := c.jwget(ctx, "/fundamentals/"+url.PathEscape(ticker), query, &raw); err != nil {
		return marketcache.Summary{}, err
	}
	sections := make(map[string]json.RawMessage)
	if len(filter) == 1 {
		// A single section comes back unwrapped.
		sections[filter[0]] = raw
	} else if err := json.Unmarshal(raw, &sections); err != nil {
		// Unknown tickers answer an empty list.
		return marketcache.Summary{}, fmt.Errorf("fundamentals of %s: %w", ticker, marketcache.ErrNoData)
	}

	var doc any
	if general, ok := sections[generalModule]; ok {
		if err := json.Unmarshal(general, &doc); err != nil {
			return marketcache.Summary{}, fmt.Errorf("decoding %s of %s: %w", generalModule, ticker, err)
		}
	}
	sum := marketcache.Summary{
		Name:     lookupString(doc, "$.Name"),
		Sector:   lookupString(doc, "$.Sector"),
		Industry: lookupString(doc, "$.Industry"),
		Currency: lookupString(doc, "$.CurrencyCode"),
		Modules:  make(map[string]json.RawMessage, len(modules)),
	}
	for _, m := range modules {
		if section, ok := sections[m]; ok && !isEmptyJSON(section) {
			sum.Modules[m] = section
		}
	}
	if len(sum.Modules) == 0 {
		return marketcache.Summary{}, fmt.Errorf("fundamentals %v of %s: %w", modules, ticker, marketcache.ErrNoData)
	}
	return sum, nil
}

// lookupString returns the string at path in doc, or "" if there is none.
func lookupString(doc any, path string) string {
	if doc == nil {
		return ""
	}
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return ""
	}
	// jsonpath may answer a list of one element.
	if list, ok := v.([]any); ok && len(list) > 0 {
		v = list[0]
	}
	s, _ := v.(string)
	return s
}

func isEmptyJSON(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}
