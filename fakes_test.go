package marketcache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/etnz/marketcache/date"
	"github.com/shopspring/decimal"
)

var errDown = errors.New("provider down")

// d is a helper for test to create decimals from const
func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// fakeUpstream is a call-count spy that answers from fixed data.
type fakeUpstream struct {
	mu    sync.Mutex
	calls map[string]int

	quotes  map[string]Quote
	summary Summary
	chart   Chart
	search  SearchResult
	daily   []Point

	err   error
	delay time.Duration
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{calls: make(map[string]int), quotes: make(map[string]Quote)}
}

func (f *fakeUpstream) called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeUpstream) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// enter records a call and simulates its latency, ignoring cancellation like
// a provider that answers late.
func (f *fakeUpstream) enter(method string) error {
	f.mu.Lock()
	f.calls[method]++
	delay, err := f.delay, f.err
	f.mu.Unlock()
	time.Sleep(delay)
	return err
}

func (f *fakeUpstream) FetchQuote(ctx context.Context, symbol string) (Quote, error) {
	if err := f.enter("FetchQuote"); err != nil {
		return Quote{}, err
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return Quote{}, ErrNoData
	}
	return q, nil
}

func (f *fakeUpstream) FetchQuoteBatch(ctx context.Context, symbols []string) (map[string]Quote, error) {
	if err := f.enter("FetchQuoteBatch"); err != nil {
		return nil, err
	}
	res := make(map[string]Quote)
	for _, s := range symbols {
		if q, ok := f.quotes[s]; ok {
			res[s] = q
		}
	}
	return res, nil
}

func (f *fakeUpstream) FetchSummary(ctx context.Context, symbol string, modules []string) (Summary, error) {
	if err := f.enter("FetchSummary"); err != nil {
		return Summary{}, err
	}
	return f.summary, nil
}

func (f *fakeUpstream) FetchChart(ctx context.Context, symbol, rng, interval string) (Chart, error) {
	if err := f.enter("FetchChart"); err != nil {
		return Chart{}, err
	}
	c := f.chart
	c.Range, c.Interval = rng, interval
	return c, nil
}

func (f *fakeUpstream) FetchSearch(ctx context.Context, query string, opts SearchOptions) (SearchResult, error) {
	if err := f.enter("FetchSearch"); err != nil {
		return SearchResult{}, err
	}
	return f.search, nil
}

func (f *fakeUpstream) FetchDaily(ctx context.Context, symbol string, from, to date.Date) ([]Point, error) {
	if err := f.enter("FetchDaily"); err != nil {
		return nil, err
	}
	return slices.Clone(f.daily), nil
}

// memStore is an in-memory Store.
type memStore struct {
	mu      sync.Mutex
	entries map[[2]string]Entry
	series  map[string]map[date.Date]decimal.Decimal
	readErr  error
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{
		entries: make(map[[2]string]Entry),
		series:  make(map[string]map[date.Date]decimal.Decimal),
	}
}

func (m *memStore) Lookup(ctx context.Context, symbol, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return Entry{}, false, m.readErr
	}
	e, ok := m.entries[[2]string{symbol, key}]
	return e, ok, nil
}

func (m *memStore) LookupMany(ctx context.Context, symbols []string, key string) (map[string]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	res := make(map[string]Entry)
	for _, s := range symbols {
		if e, ok := m.entries[[2]string{s, key}]; ok {
			res[s] = e
		}
	}
	return res, nil
}

func (m *memStore) Upsert(ctx context.Context, e Entry) error {
	return m.UpsertMany(ctx, []Entry{e})
}

func (m *memStore) UpsertMany(ctx context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	for _, e := range entries {
		m.entries[[2]string{e.Symbol, e.Key}] = e
	}
	return nil
}

func (m *memStore) Series(ctx context.Context, symbol string, from, to date.Date) ([]Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	var points []Point
	for day, price := range m.series[symbol] {
		if !day.Before(from) && !day.After(to) {
			points = append(points, Point{Date: day, Price: price})
		}
	}
	slices.SortFunc(points, func(a, b Point) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		}
		return 0
	})
	return points, nil
}

func (m *memStore) UpsertSeries(ctx context.Context, symbol string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	s, ok := m.series[symbol]
	if !ok {
		s = make(map[date.Date]decimal.Decimal)
		m.series[symbol] = s
	}
	for _, p := range points {
		s[p.Date] = p.Price
	}
	return nil
}

func (m *memStore) entry(symbol, key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[[2]string{symbol, key}]
	return e, ok
}

func (m *memStore) putQuote(q Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[[2]string{q.Symbol, priceKey}] = Entry{Symbol: q.Symbol, Key: priceKey, Quote: &q, LastUpdated: q.LastUpdated}
}

// clock is a fixed, settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testNow = time.Date(2024, time.June, 3, 15, 30, 0, 0, time.UTC)

// newTestService returns a Service on fresh fakes, closed at the end of the test.
func newTestService(t *testing.T, opts Options) (*Service, *memStore, *fakeUpstream, *clock) {
	t.Helper()
	store, up := newMemStore(), newFakeUpstream()
	clk := &clock{now: testNow}
	if opts.Now == nil {
		opts.Now = clk.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := New(store, up, opts)
	t.Cleanup(func() { s.Close() })
	return s, store, up, clk
}
