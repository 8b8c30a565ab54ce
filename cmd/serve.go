package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/etnz/marketcache/httpapi"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"
)

type serveCmd struct {
	addr string
	warm string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the cache over HTTP" }
func (*serveCmd) Usage() string {
	return `mcache serve [-addr <host:port>] [-warm <ticker>,...]

  Serves the cache over HTTP until interrupted:

    GET /v1/price/{ticker}      GET /v1/prices?symbols=A,B
    GET /v1/summary/{ticker}    GET /v1/chart/{ticker}
    GET /v1/search?q=           GET /v1/history/{ticker}
    GET /v1/benchmark           GET /metrics

  Add ?format=md to any /v1 request to get markdown instead of JSON.
  With -warm, the prices of the given tickers are refreshed in the
  background each time they go stale.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address, defaults to http.addr from the configuration")
	f.StringVar(&c.warm, "warm", "", "comma separated tickers to keep fresh")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, func(s *session) error {
		addr := c.addr
		if addr == "" {
			addr = s.cfg.HTTP.Addr
		}
		handler := httpapi.NewHandler(s, httpapi.Options{Logger: s.logger, Gatherer: s.registry})

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			err := httpapi.ListenAndServe(ctx, addr, handler, s.cfg.HTTP.ShutdownTimeout.Duration, s.logger)
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		if tickers := splitTickers(c.warm); len(tickers) > 0 {
			g.Go(func() error {
				warm(ctx, s, tickers, s.cfg.Freshness.Price.Duration)
				return nil
			})
		}
		return g.Wait()
	})
}

func splitTickers(list string) []string {
	var res []string
	for _, t := range strings.Split(list, ",") {
		if t = strings.TrimSpace(t); t != "" {
			res = append(res, t)
		}
	}
	return res
}

// warm reads the tickers' prices every period until ctx is done. Reads go
// through the cache, so each round refreshes only what went stale.
func warm(ctx context.Context, s *session, tickers []string, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		quotes, err := s.GetBatchPrices(ctx, tickers, false)
		if err != nil {
			s.logger.Warn("warming prices failed", slog.Any("error", err))
		} else {
			s.logger.Debug("prices warmed", slog.Int("requested", len(tickers)), slog.Int("priced", len(quotes)))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
