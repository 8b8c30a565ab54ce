package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/renderer"
	"github.com/google/subcommands"
)

type priceCmd struct {
	force  bool
	asJSON bool
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "display the current price of a ticker" }
func (*priceCmd) Usage() string {
	return `mcache price [-force] [-json] <ticker>

  Displays the current price of a ticker. The cached quote is used when it is
  fresh, otherwise the provider is asked, and a stale quote is shown if the
  provider does not answer.
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "ask the provider even if the cached quote is fresh")
	f.BoolVar(&c.asJSON, "json", false, "print JSON instead of markdown")
}

func (c *priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one ticker is required.")
		return subcommands.ExitUsageError
	}
	ticker := f.Arg(0)
	return run(ctx, func(s *session) error {
		q, err := s.GetCurrentPrice(ctx, ticker, c.force)
		if err != nil {
			return err
		}
		if q == nil {
			return fmt.Errorf("no price available for %q", ticker)
		}
		return output(c.asJSON, q, func() string { return renderer.QuoteMarkdown(q) })
	})
}

type pricesCmd struct {
	force  bool
	asJSON bool
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "display the current prices of several tickers" }
func (*pricesCmd) Usage() string {
	return `mcache prices [-force] [-json] <ticker>...

  Displays the current prices of several tickers, asking the provider once
  for all the tickers without a fresh cached quote. Tickers that no source
  can price are listed as unavailable.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "ask the provider even for fresh cached quotes")
	f.BoolVar(&c.asJSON, "json", false, "print JSON instead of markdown")
}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one ticker is required.")
		return subcommands.ExitUsageError
	}
	tickers := f.Args()
	return run(ctx, func(s *session) error {
		quotes, err := s.GetBatchPrices(ctx, tickers, c.force)
		if err != nil {
			return err
		}
		return output(c.asJSON, quotes, func() string {
			requested := make([]string, len(tickers))
			for i, t := range tickers {
				requested[i] = marketcache.NormalizeSymbol(t)
			}
			return renderer.QuotesMarkdown(requested, quotes)
		})
	})
}
