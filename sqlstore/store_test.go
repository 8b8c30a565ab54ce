package sqlstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/date"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
)

// openTestStore opens a private in-memory sqlite database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(context.Background(), Config{
		Driver:       "sqlite",
		DSN:          "file:" + name + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestUpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	first := time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)
	second := first.Add(20 * time.Minute)

	for _, e := range []marketcache.Entry{
		{Symbol: "AAPL", Key: "price", Quote: &marketcache.Quote{Price: d("148")}, LastUpdated: first},
		{Symbol: "AAPL", Key: "price", Quote: &marketcache.Quote{Price: d("150"), Change: d("2"), ChangePercent: d("1.35"), Currency: "USD"}, LastUpdated: second},
	} {
		if err := s.Upsert(ctx, e); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	var count int64
	if err := s.db.Model(&CacheEntry{}).Where("symbol = ? AND cache_key = ?", "AAPL", "price").Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("found %d rows for (AAPL, price), want 1", count)
	}

	got, found, err := s.Lookup(ctx, "AAPL", "price")
	if err != nil || !found {
		t.Fatalf("Lookup() = %v, %v", found, err)
	}
	want := marketcache.Entry{
		Symbol: "AAPL",
		Key:    "price",
		Quote: &marketcache.Quote{
			Symbol: "AAPL", Price: d("150"), Change: d("2"), ChangePercent: d("1.35"), Currency: "USD", LastUpdated: second,
		},
		LastUpdated: second,
	}
	if diff := cmp.Diff(want, got, decimalComparer, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Lookup() mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupMany(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)
	err := s.UpsertMany(ctx, []marketcache.Entry{
		{Symbol: "AAPL", Key: "summary:General", Payload: []byte(`{"a":1}`), LastUpdated: now},
		{Symbol: "MSFT", Key: "summary:General", Payload: []byte(`{"m":1}`), LastUpdated: now},
		{Symbol: "MSFT", Key: "price", Quote: &marketcache.Quote{Price: d("400")}, LastUpdated: now},
	})
	if err != nil {
		t.Fatalf("UpsertMany() error = %v", err)
	}

	got, err := s.LookupMany(ctx, []string{"AAPL", "MSFT", "GOOG"}, "summary:General")
	if err != nil {
		t.Fatalf("LookupMany() error = %v", err)
	}
	if len(got) != 2 || string(got["MSFT"].Payload) != `{"m":1}` || got["MSFT"].Quote != nil {
		t.Errorf("LookupMany() = %+v", got)
	}

	if _, found, err := s.Lookup(ctx, "GOOG", "price"); found || err != nil {
		t.Errorf("Lookup(GOOG) = %v, %v, want not found", found, err)
	}
	if got, err := s.LookupMany(ctx, nil, "price"); err != nil || len(got) != 0 {
		t.Errorf("LookupMany(nil) = %v, %v", got, err)
	}
}

func TestSeries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	day := date.MustParse
	err := s.UpsertSeries(ctx, "AAPL", []marketcache.Point{
		{Date: day("2024-05-02"), Price: d("2")},
		{Date: day("2024-05-01"), Price: d("1")},
		{Date: day("2024-05-03"), Price: d("3")},
	})
	if err != nil {
		t.Fatalf("UpsertSeries() error = %v", err)
	}
	// Overwrite one close.
	if err := s.UpsertSeries(ctx, "AAPL", []marketcache.Point{{Date: day("2024-05-02"), Price: d("2.5")}}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Series(ctx, "AAPL", day("2024-05-02"), day("2024-05-31"))
	if err != nil {
		t.Fatalf("Series() error = %v", err)
	}
	want := []marketcache.Point{
		{Date: day("2024-05-02"), Price: d("2.5")},
		{Date: day("2024-05-03"), Price: d("3")},
	}
	if diff := cmp.Diff(want, got, decimalComparer, cmp.Comparer(func(a, b date.Date) bool { return a == b })); diff != "" {
		t.Errorf("Series() mismatch (-want +got):\n%s", diff)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "oracle"}); err == nil {
		t.Errorf("Open(oracle) returned no error")
	}
}
