package marketcache

import (
	"context"
	"errors"
	"time"

	"github.com/etnz/marketcache/date"
)

// ErrNoData is returned by an Upstream that answered without usable data.
var ErrNoData = errors.New("no data")

// ErrInvalidArgument is returned by accessors called with arguments that can never succeed.
var ErrInvalidArgument = errors.New("invalid argument")

// Entry is one cached value, identified by (Symbol, Key).
//
// Price entries are kept as flattened columns in Quote, because they are read
// far more often than anything else. Every other class is an opaque JSON
// Payload.
type Entry struct {
	Symbol      string
	Key         string
	Quote       *Quote
	Payload     []byte
	LastUpdated time.Time
}

// Store is the persistent cache.
//
// All writes are upserts on the natural key, so concurrent writers resolve to
// last-writer-wins without locks.
type Store interface {
	// Lookup returns the entry for (symbol, key) and whether it exists.
	Lookup(ctx context.Context, symbol, key string) (Entry, bool, error)
	// LookupMany returns the entries for key of every symbol that has one.
	LookupMany(ctx context.Context, symbols []string, key string) (map[string]Entry, error)
	// Upsert inserts or overwrites an entry.
	Upsert(ctx context.Context, e Entry) error
	// UpsertMany inserts or overwrites entries.
	UpsertMany(ctx context.Context, entries []Entry) error

	// Series returns the cached daily closes of symbol in [from, to], in date order.
	Series(ctx context.Context, symbol string, from, to date.Date) ([]Point, error)
	// UpsertSeries inserts or overwrites daily closes keyed by (symbol, date).
	UpsertSeries(ctx context.Context, symbol string, points []Point) error
}

// Upstream is the market-data provider, one method per data class.
//
// Implementations do not need to bound their latency: every call is raced
// against a timeout by the caller.
type Upstream interface {
	FetchQuote(ctx context.Context, symbol string) (Quote, error)
	// FetchQuoteBatch returns quotes keyed by symbol. Symbols the provider
	// could not quote are missing from the map.
	FetchQuoteBatch(ctx context.Context, symbols []string) (map[string]Quote, error)
	FetchSummary(ctx context.Context, symbol string, modules []string) (Summary, error)
	FetchChart(ctx context.Context, symbol, rng, interval string) (Chart, error)
	FetchSearch(ctx context.Context, query string, opts SearchOptions) (SearchResult, error)
	// FetchDaily returns daily closes of symbol in [from, to].
	FetchDaily(ctx context.Context, symbol string, from, to date.Date) ([]Point, error)
}
