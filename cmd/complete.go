package cmd

import (
	"flag"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors complete flag values by flag name.
var flagPredictors = map[string]complete.Predictor{
	"config": predict.Files("*.toml"),
	"r":      predict.Set(marketcache.ChartRanges()),
	"i":      predict.Set(marketcache.ChartIntervals()),
	"p":      predict.Set{"5d", "2wk", "1mo", "3mo", "6mo", "1y", "5y", "ytd", "max"},
	"m":      predict.Set{"General", "Highlights", "Valuation", "SharesStats", "Technicals", "SplitsDividends", "AnalystRatings", "Earnings", "Financials"},
}

// Completion returns the shell completion of every command registered in c.
func Completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: predictFlags(flag.CommandLine.VisitAll),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		sub := &complete.Command{Flags: predictFlags(fs.VisitAll), Args: predict.Something}
		if cmd.Name() == "topic" {
			topics, _ := docs.Names()
			sub.Args = predict.Set(topics)
		}
		root.Sub[cmd.Name()] = sub
	})
	return root
}

func predictFlags(visit func(func(*flag.Flag))) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	visit(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		if p, ok := flagPredictors[f.Name]; ok {
			flags[f.Name] = p
			return
		}
		flags[f.Name] = predict.Something
	})
	return flags
}

// Known reports whether name is a command registered in c.
func Known(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		found = found || cmd.Name() == name
	})
	return found
}
