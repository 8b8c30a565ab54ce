package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/marketcache/renderer"
	"github.com/google/subcommands"
)

type chartCmd struct {
	rng      string
	interval string
	force    bool
	asJSON   bool
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "display price bars of a ticker" }
func (*chartCmd) Usage() string {
	return `mcache chart [-r <range>] [-i <interval>] [-force] [-json] <ticker>

  Displays open, high, low and close prices of a ticker over a range
  (1d, 5d, 1mo, 3mo, 6mo, ytd, 1y, 2y, 5y, 10y, max) by interval
  (1m, 2m, 5m, 15m, 30m, 60m, 90m, 1h, 1d, 1wk, 1mo). Without an interval,
  one suited to the range is used.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.rng, "r", "1mo", "chart range")
	f.StringVar(&c.interval, "i", "", "bar interval, defaults to one suited to the range")
	f.BoolVar(&c.force, "force", false, "ask the provider even if the cached chart is fresh")
	f.BoolVar(&c.asJSON, "json", false, "print JSON instead of markdown")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one ticker is required.")
		return subcommands.ExitUsageError
	}
	ticker := f.Arg(0)
	return run(ctx, func(s *session) error {
		chart, err := s.GetCachedChart(ctx, ticker, c.rng, c.interval, c.force)
		if err != nil {
			return err
		}
		if chart == nil {
			return fmt.Errorf("no chart available for %q", ticker)
		}
		return output(c.asJSON, chart, func() string { return renderer.ChartMarkdown(chart) })
	})
}
