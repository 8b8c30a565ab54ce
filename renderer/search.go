package renderer

import "github.com/etnz/marketcache"

// SearchMarkdown renders the securities and news matching a search.
func SearchMarkdown(r *marketcache.SearchResult) string {
	partials := map[string]string{
		"search_quotes": "search_quotes.md",
		"search_news":   "search_news.md",
	}
	return renderTemplate("search", "search.md", partials, r)
}
