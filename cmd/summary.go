package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/marketcache/renderer"
	"github.com/google/subcommands"
)

type summaryCmd struct {
	modules string
	force   bool
	asJSON  bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display fundamentals of a ticker" }
func (*summaryCmd) Usage() string {
	return `mcache summary [-m <module>,...] [-force] [-json] <ticker>

  Displays fundamentals modules of a ticker, e.g. General, Highlights,
  Valuation or Technicals. Summaries stay fresh for days.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.modules, "m", "General", "comma separated list of fundamentals modules")
	f.BoolVar(&c.force, "force", false, "ask the provider even if the cached summary is fresh")
	f.BoolVar(&c.asJSON, "json", false, "print JSON instead of markdown")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one ticker is required.")
		return subcommands.ExitUsageError
	}
	ticker := f.Arg(0)
	return run(ctx, func(s *session) error {
		sum, err := s.GetCachedQuoteSummary(ctx, ticker, strings.Split(c.modules, ","), c.force)
		if err != nil {
			return err
		}
		if sum == nil {
			return fmt.Errorf("no summary available for %q", ticker)
		}
		return output(c.asJSON, sum, func() string { return renderer.SummaryMarkdown(sum) })
	})
}
