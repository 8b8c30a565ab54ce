// Package httpapi exposes the market data cache over HTTP.
//
// Every read answers JSON by default, or markdown with ?format=md.
//
//	GET /v1/price/{ticker}          current quote
//	GET /v1/prices?symbols=A,B      batch of quotes
//	GET /v1/summary/{ticker}        fundamentals, ?modules=General,Highlights
//	GET /v1/chart/{ticker}          ?range=5d&interval=30m
//	GET /v1/search                  ?q=apple&quotes=10&news=5
//	GET /v1/history/{ticker}        ?from=2024-01-01&to=2024-06-01 or ?range=1y
//	GET /v1/benchmark               same parameters as history
//	GET /metrics                    prometheus exposition
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/date"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Accessor is the read side of the cache served by the handler.
// *marketcache.Service implements it.
type Accessor interface {
	GetCurrentPrice(ctx context.Context, ticker string, force bool) (*marketcache.Quote, error)
	GetBatchPrices(ctx context.Context, tickers []string, force bool) (map[string]marketcache.Quote, error)
	GetCachedQuoteSummary(ctx context.Context, ticker string, modules []string, force bool) (*marketcache.Summary, error)
	GetCachedChart(ctx context.Context, ticker, rng, interval string, force bool) (*marketcache.Chart, error)
	GetCachedSearch(ctx context.Context, query string, opts marketcache.SearchOptions) (*marketcache.SearchResult, error)
	GetHistoricalPrices(ctx context.Context, ticker string, from, to date.Date) ([]marketcache.Point, error)
	GetHistoricalBenchmark(ctx context.Context, from, to date.Date) ([]marketcache.Point, error)
	Benchmark() string
}

// Options configures the handler. Zero values mean defaults.
type Options struct {
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer // served on /metrics when set
	Now      func() time.Time    // today for history lookbacks
}

type server struct {
	svc    Accessor
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler returns the HTTP handler serving svc.
func NewHandler(svc Accessor, opts Options) http.Handler {
	s := &server{svc: svc, logger: opts.Logger, now: opts.Now}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/price/{ticker}", s.handlePrice)
		r.Get("/prices", s.handlePrices)
		r.Get("/summary/{ticker}", s.handleSummary)
		r.Get("/chart/{ticker}", s.handleChart)
		r.Get("/search", s.handleSearch)
		r.Get("/history/{ticker}", s.handleHistory)
		r.Get("/benchmark", s.handleBenchmark)
	})
	return r
}

// logRequests logs one line per request once it is served.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// ListenAndServe serves handler on addr until ctx is canceled, then shuts
// down gracefully within grace.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, grace time.Duration, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("http server starting", slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()
	logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errc
	return nil
}
