package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/renderer"
	"github.com/google/subcommands"
)

// searchCmd implements the "search" command.
type searchCmd struct {
	quotes int
	news   int
	asJSON bool
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "searches for securities and news" }
func (*searchCmd) Usage() string {
	return `mcache search [-n <count>] [-news <count>] [-json] <search term>

  Searches for securities matching a name, ticker or ISIN, and optionally for
  the latest news about the best match.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.quotes, "n", 10, "maximum number of securities")
	f.IntVar(&c.news, "news", 0, "maximum number of news articles")
	f.BoolVar(&c.asJSON, "json", false, "print JSON instead of markdown")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	searchTerm := strings.Join(f.Args(), " ")
	opts := marketcache.SearchOptions{QuotesCount: c.quotes, NewsCount: c.news}
	return run(ctx, func(s *session) error {
		res, err := s.GetCachedSearch(ctx, searchTerm, opts)
		if err != nil {
			return err
		}
		if res == nil {
			return fmt.Errorf("no search result available for %q", searchTerm)
		}
		return output(c.asJSON, res, func() string { return renderer.SearchMarkdown(res) })
	})
}
