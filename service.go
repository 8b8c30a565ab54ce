package marketcache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/etnz/marketcache/date"
	"golang.org/x/sync/singleflight"
)

// DefaultBenchmark is the symbol of the default benchmark index (S&P 500).
const DefaultBenchmark = "^GSPC"

// Timeouts bound every upstream call and every background write.
type Timeouts struct {
	Point   time.Duration // single quote, search
	Batch   time.Duration // batch quotes
	Summary time.Duration
	Chart   time.Duration
	History time.Duration
	Write   time.Duration // background cache writes
}

// withDefaults returns t with every zero timeout set to its default.
func (t Timeouts) withDefaults() Timeouts {
	def := DefaultTimeouts()
	for _, f := range []struct{ v, d *time.Duration }{
		{&t.Point, &def.Point},
		{&t.Batch, &def.Batch},
		{&t.Summary, &def.Summary},
		{&t.Chart, &def.Chart},
		{&t.History, &def.History},
		{&t.Write, &def.Write},
	} {
		if *f.v == 0 {
			*f.v = *f.d
		}
	}
	return t
}

// DefaultTimeouts returns the default timeouts.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Point:   3 * time.Second,
		Batch:   10 * time.Second,
		Summary: 10 * time.Second,
		Chart:   10 * time.Second,
		History: 15 * time.Second,
		Write:   5 * time.Second,
	}
}

// Options configure a Service. Zero fields take their default, field by
// field within Policy and Timeouts.
type Options struct {
	Policy    Policy
	Timeouts  Timeouts
	Benchmark string
	Logger    *slog.Logger
	Metrics   *Metrics
	// Now is the clock, time.Now by default.
	Now func() time.Time
}

// Service is the accessor API used by application code.
//
// It is safe for concurrent use. Accessors return nil, a map without the
// symbol, or an empty slice when no value can be found; their error is
// reserved for invalid arguments and cache read failures that leave nothing to
// answer with.
type Service struct {
	store     Store
	upstream  Upstream
	policy    Policy
	timeouts  Timeouts
	benchmark string
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time

	flight singleflight.Group
	writes writer
}

// New returns a Service reading and writing store, and fetching from upstream.
//
// The store is shared by every call and should be opened once per process.
func New(store Store, upstream Upstream, opts Options) *Service {
	opts.Policy = opts.Policy.withDefaults()
	opts.Timeouts = opts.Timeouts.withDefaults()
	if opts.Benchmark == "" {
		opts.Benchmark = DefaultBenchmark
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{
		store:     store,
		upstream:  upstream,
		policy:    opts.Policy,
		timeouts:  opts.Timeouts,
		benchmark: NormalizeSymbol(opts.Benchmark),
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
	s.writes = writer{timeout: opts.Timeouts.Write, logger: opts.Logger, metrics: opts.Metrics}
	return s
}

// Close waits for pending background cache writes.
func (s *Service) Close() error {
	s.writes.Wait()
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// GetCurrentPrice returns the current quote of ticker, or nil if none is available.
//
// force skips the cache lookup and always asks upstream, the cache still
// answers if upstream fails.
func (s *Service) GetCurrentPrice(ctx context.Context, ticker string, force bool) (*Quote, error) {
	symbol := NormalizeSymbol(ticker)
	if symbol == "" {
		return nil, invalid("empty ticker")
	}
	q, found, err := fetchOne(ctx, s, request[Quote]{
		codec:   quoteCodec,
		symbol:  symbol,
		key:     PriceKey(),
		timeout: s.timeouts.Point,
		force:   force,
		fetch: func(ctx context.Context, u Upstream) (Quote, error) {
			return u.FetchQuote(ctx, symbol)
		},
	})
	if err != nil || !found {
		return nil, err
	}
	return &q, nil
}

// GetBatchPrices returns the current quotes of tickers, keyed by normalized symbol.
//
// A symbol missing from the map has no known quote. The map is never nil.
func (s *Service) GetBatchPrices(ctx context.Context, tickers []string, force bool) (map[string]Quote, error) {
	return fetchBatch(ctx, s, batchRequest[Quote]{
		codec:   quoteCodec,
		symbols: tickers,
		key:     PriceKey(),
		timeout: s.timeouts.Batch,
		force:   force,
		fetch: func(ctx context.Context, u Upstream, symbols []string) (map[string]Quote, error) {
			return u.FetchQuoteBatch(ctx, symbols)
		},
	})
}

// GetCachedQuoteSummary returns the fundamentals modules of ticker, or nil if none is available.
func (s *Service) GetCachedQuoteSummary(ctx context.Context, ticker string, modules []string, force bool) (*Summary, error) {
	symbol := NormalizeSymbol(ticker)
	if symbol == "" {
		return nil, invalid("empty ticker")
	}
	modules = normalizeModules(modules)
	if len(modules) == 0 {
		return nil, invalid("no summary module requested")
	}
	sum, found, err := fetchOne(ctx, s, request[Summary]{
		codec:   summaryCodec,
		symbol:  symbol,
		key:     SummaryKey(modules),
		timeout: s.timeouts.Summary,
		force:   force,
		fetch: func(ctx context.Context, u Upstream) (Summary, error) {
			return u.FetchSummary(ctx, symbol, modules)
		},
	})
	if err != nil || !found {
		return nil, err
	}
	return &sum, nil
}

// defaultIntervals is the chart interval used when none is given.
var defaultIntervals = map[string]string{
	"1d": "5m", "5d": "30m", "1mo": "1d", "3mo": "1d", "6mo": "1d", "ytd": "1d",
	"1y": "1d", "2y": "1wk", "5y": "1wk", "10y": "1mo", "max": "1mo",
}

// GetCachedChart returns the chart of ticker over rng (e.g. "1d", "6mo") by interval.
//
// An empty interval picks the default one for rng.
func (s *Service) GetCachedChart(ctx context.Context, ticker, rng, interval string, force bool) (*Chart, error) {
	symbol := NormalizeSymbol(ticker)
	if symbol == "" {
		return nil, invalid("empty ticker")
	}
	rng = strings.ToLower(strings.TrimSpace(rng))
	if !chartRanges[rng] {
		return nil, invalid("unknown chart range %q", rng)
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		interval = defaultIntervals[rng]
	}
	if !chartIntervals[interval] {
		return nil, invalid("unknown chart interval %q", interval)
	}
	class := ChartClass(rng)
	c, found, err := fetchOne(ctx, s, request[Chart]{
		codec:   chartCodec(class),
		symbol:  symbol,
		key:     ChartKey(rng, interval),
		timeout: s.timeouts.Chart,
		force:   force,
		fetch: func(ctx context.Context, u Upstream) (Chart, error) {
			return u.FetchChart(ctx, symbol, rng, interval)
		},
	})
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// GetCachedSearch returns the securities, and optionally the news, matching query.
//
// Zero options ask for 10 securities and no news.
func (s *Service) GetCachedSearch(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	query = normalizeQuery(query)
	if query == "" {
		return nil, invalid("empty search query")
	}
	if opts == (SearchOptions{}) {
		opts.QuotesCount = 10
	}
	// A search with news expires with the shorter of the two thresholds.
	class := ClassSearch
	if opts.NewsCount > 0 && s.policy.News < s.policy.Search {
		class = ClassNews
	}
	res, found, err := fetchOne(ctx, s, request[SearchResult]{
		codec:   searchCodec(class),
		symbol:  SearchSymbol,
		key:     SearchKey(query, opts),
		timeout: s.timeouts.Point,
		fetch: func(ctx context.Context, u Upstream) (SearchResult, error) {
			res, err := u.FetchSearch(ctx, query, opts)
			res.Query, res.Options = query, opts
			return res, err
		},
	})
	if err != nil || !found {
		return nil, err
	}
	return &res, nil
}

// GetHistoricalPrices returns the daily closes of ticker between from and to included, in date order.
//
// An empty slice means the series is unavailable right now.
func (s *Service) GetHistoricalPrices(ctx context.Context, ticker string, from, to date.Date) ([]Point, error) {
	symbol := NormalizeSymbol(ticker)
	if symbol == "" {
		return nil, invalid("empty ticker")
	}
	rng, err := date.NewRange(from, to)
	if err != nil {
		return nil, invalid("%v", err)
	}
	return fetchRange(ctx, s, symbol, rng), nil
}

// GetHistoricalBenchmark returns the daily closes of the benchmark index between from and to included.
func (s *Service) GetHistoricalBenchmark(ctx context.Context, from, to date.Date) ([]Point, error) {
	return s.GetHistoricalPrices(ctx, s.benchmark, from, to)
}

// Benchmark returns the symbol of the benchmark index.
func (s *Service) Benchmark() string { return s.benchmark }
