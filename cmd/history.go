package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/date"
	"github.com/etnz/marketcache/renderer"
	"github.com/google/subcommands"
)

// spanFlags selects a range of days for history commands.
type spanFlags struct {
	from     string
	to       string
	lookback string
	asJSON   bool
}

func (p *spanFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.from, "s", "", "first day of the history (YYYY-MM-DD). Overrides -p.")
	f.StringVar(&p.to, "d", "", "last day of the history (YYYY-MM-DD), defaults to today")
	f.StringVar(&p.lookback, "p", "1y", "lookback ending on the last day: 5d, 2wk, 6mo, 1y, ytd or max")
	f.BoolVar(&p.asJSON, "json", false, "print JSON instead of markdown")
}

func (p *spanFlags) span() (date.Range, error) {
	return date.Span(p.from, p.to, p.lookback, date.Today())
}

type historyCmd struct {
	spanFlags
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display daily closing prices of a ticker" }
func (*historyCmd) Usage() string {
	return `mcache history [-p <lookback> | -s <start_date>] [-d <end_date>] [-json] <ticker>

  Displays the daily closing prices of a ticker. A cached series is used when
  it is complete, otherwise the whole range is fetched and cached.
`
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one ticker is required.")
		return subcommands.ExitUsageError
	}
	rng, err := c.span()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	ticker := f.Arg(0)
	return run(ctx, func(s *session) error {
		points, err := s.GetHistoricalPrices(ctx, ticker, rng.From, rng.To)
		if err != nil {
			return err
		}
		symbol := marketcache.NormalizeSymbol(ticker)
		return output(c.asJSON, points, func() string { return renderer.HistoryMarkdown(symbol, points) })
	})
}

type benchmarkCmd struct {
	spanFlags
}

func (*benchmarkCmd) Name() string     { return "benchmark" }
func (*benchmarkCmd) Synopsis() string { return "display daily closing prices of the benchmark index" }
func (*benchmarkCmd) Usage() string {
	return `mcache benchmark [-p <lookback> | -s <start_date>] [-d <end_date>] [-json]

  Displays the daily closing prices of the configured benchmark index
  (history.benchmark, ^GSPC by default).
`
}

func (c *benchmarkCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rng, err := c.span()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(s *session) error {
		points, err := s.GetHistoricalBenchmark(ctx, rng.From, rng.To)
		if err != nil {
			return err
		}
		return output(c.asJSON, points, func() string { return renderer.HistoryMarkdown(s.Benchmark(), points) })
	})
}
