// Command mcache reads quotes, summaries, charts and price histories through
// a local cache of the EODHD API, and serves them over HTTP.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/etnz/marketcache/cmd"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "mcache")
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")
	cmd.Register(commander)

	// Exits when invoked by the shell to complete the command line.
	cmd.Completion(commander).Complete("mcache")

	flag.Parse()
	if name := flag.Arg(0); name != "" && !cmd.Known(commander, name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}
