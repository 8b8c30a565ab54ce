// Package cmd implements the mcache command line: reads through the market
// data cache and a server exposing it over HTTP.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/config"
	"github.com/etnz/marketcache/eodhd"
	"github.com/etnz/marketcache/sqlstore"
	"github.com/google/subcommands"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	EnvConfigFile = "MCACHE_CONFIG"
	EnvVerbose    = "MCACHE_VERBOSE"

	eodhdAPIKey = "EODHD_API_KEY"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&priceCmd{}, "quotes")
	c.Register(&pricesCmd{}, "quotes")
	c.Register(&summaryCmd{}, "quotes")
	c.Register(&chartCmd{}, "quotes")
	c.Register(&searchCmd{}, "quotes")

	c.Register(&historyCmd{}, "history")
	c.Register(&benchmarkCmd{}, "history")

	c.Register(&serveCmd{}, "server")
	c.Register(&configCmd{}, "server")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configPath = flag.String("config", defaultConfigPath(), "Path to the TOML configuration file. Defaults to $"+EnvConfigFile+" or the user configuration directory.")
var apiKeyFlag = flag.String("eodhd-api-key", "", "EODHD API key. This flag takes precedence over the "+eodhdAPIKey+" environment variable and the configuration file. You can get one at https://eodhd.com/")

// Verbose turns on debug logging to stderr.
var Verbose = flag.Bool("v", false, "log cache and provider activity to stderr")

func defaultConfigPath() string {
	if p := os.Getenv(EnvConfigFile); p != "" {
		return p
	}
	return config.DefaultPath()
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if *Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the configuration file and resolves the API key: the flag
// first, then the environment, then the file.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}
	if *apiKeyFlag != "" {
		cfg.EODHD.APIKey = *apiKeyFlag
	} else if key := os.Getenv(eodhdAPIKey); key != "" {
		cfg.EODHD.APIKey = key
	}
	return cfg, nil
}

// session is an open cache, ready to serve reads.
type session struct {
	*marketcache.Service
	cfg      config.Config
	logger   *slog.Logger
	store    *sqlstore.Store
	registry *prometheus.Registry
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.EODHD.APIKey == "" {
		return nil, fmt.Errorf("EODHD API key is not set. Use -eodhd-api-key flag or %s environment variable", eodhdAPIKey)
	}
	logger := newLogger()
	slog.SetDefault(logger)

	store, err := sqlstore.Open(ctx, cfg.Store())
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svc := marketcache.New(store, eodhd.New(cfg.Provider(logger)), cfg.Options(logger, marketcache.NewMetrics(reg)))
	return &session{Service: svc, cfg: cfg, logger: logger, store: store, registry: reg}, nil
}

// Close waits for pending cache writes, then closes the store.
func (s *session) Close() error {
	return errors.Join(s.Service.Close(), s.store.Close())
}

// run opens a session, calls f and closes the session, mapping errors to an
// exit status.
func run(ctx context.Context, f func(*session) error) subcommands.ExitStatus {
	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	err = f(s)
	if cerr := s.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Error closing the cache: %v\n", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// output prints v as indented JSON, or md as markdown.
func output(asJSON bool, v any, md func() string) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	printMarkdown(md())
	return nil
}

// printMarkdown renders md for the terminal, or prints it as is when stdout
// is not one.
func printMarkdown(md string) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
