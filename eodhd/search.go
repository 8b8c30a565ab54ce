package eodhd

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/etnz/marketcache"
)

// searchHit matches the structure of a single item in the EODHD search API response.
type searchHit struct {
	Code          string `json:"Code"`
	Exchange      string `json:"Exchange"`
	Name          string `json:"Name"`
	Type          string `json:"Type"`
	Country       string `json:"Country"`
	Currency      string `json:"Currency"`
	ISIN          string `json:"ISIN"`
	PreviousClose number `json:"previousClose"`
}

// article matches the structure of a single item in the EODHD news API response.
type article struct {
	Date    string   `json:"date"` // e.g. "2024-06-03T14:05:00+00:00"
	Title   string   `json:"title"`
	Link    string   `json:"link"`
	Symbols []string `json:"symbols"`
}

// FetchSearch searches securities by name, ticker or ISIN, and the news of the best match.
func (c *Client) FetchSearch(ctx context.Context, query string, opts marketcache.SearchOptions) (marketcache.SearchResult, error) {
	res := marketcache.SearchResult{Query: query, Options: opts}
	limit := max(opts.QuotesCount, 1)

	// https://eodhd.com/api/search/apple?limit=10&api_token=demo&fmt=json
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	var hits []searchHit
	if err := c.jwget(ctx, "/search/"+url.PathEscape(query), q, &hits); err != nil {
		return res, err
	}
	if opts.QuotesCount > 0 {
		for _, h := range hits {
			res.Quotes = append(res.Quotes, marketcache.SearchHit{
				Symbol:        h.Code + "." + h.Exchange,
				Exchange:      h.Exchange,
				Name:          h.Name,
				Type:          h.Type,
				Country:       h.Country,
				Currency:      h.Currency,
				ISIN:          h.ISIN,
				PreviousClose: h.PreviousClose.Decimal,
			})
		}
	}
	if opts.NewsCount <= 0 || len(hits) == 0 {
		return res, nil
	}

	// https://eodhd.com/api/news?s=AAPL.US&limit=5&offset=0&api_token=demo&fmt=json
	q = url.Values{}
	q.Set("s", hits[0].Code+"."+hits[0].Exchange)
	q.Set("limit", strconv.Itoa(opts.NewsCount))
	q.Set("offset", "0")
	var articles []article
	if err := c.jwget(ctx, "/news", q, &articles); err != nil {
		return res, err
	}
	for _, a := range articles {
		published, err := time.Parse(time.RFC3339, a.Date)
		if err != nil {
			c.logger.DebugContext(ctx, "ignoring invalid news date", "date", a.Date, "err", err)
		}
		res.News = append(res.News, marketcache.NewsItem{
			Title:     a.Title,
			Link:      a.Link,
			Published: published.UTC(),
			Symbols:   a.Symbols,
		})
	}
	return res, nil
}
