package sqlstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/etnz/marketcache"
)

// quoteUpstream answers quotes from a fixed price, or fails when down is set.
type quoteUpstream struct {
	marketcache.Upstream // other classes are not exercised
	price                string
	down                 atomic.Bool
	calls                atomic.Int32
}

func (u *quoteUpstream) FetchQuote(ctx context.Context, symbol string) (marketcache.Quote, error) {
	u.calls.Add(1)
	if u.down.Load() {
		return marketcache.Quote{}, errors.New("provider down")
	}
	return marketcache.Quote{Price: d(u.price), Currency: "USD"}, nil
}

func (u *quoteUpstream) FetchQuoteBatch(ctx context.Context, symbols []string) (map[string]marketcache.Quote, error) {
	u.calls.Add(1)
	if u.down.Load() {
		return nil, errors.New("provider down")
	}
	res := make(map[string]marketcache.Quote, len(symbols))
	for _, s := range symbols {
		res[s] = marketcache.Quote{Price: d(u.price)}
	}
	return res, nil
}

func TestServiceOnSQL(t *testing.T) {
	store := openTestStore(t)
	up := &quoteUpstream{price: "150.00"}
	now := time.Date(2024, time.June, 3, 15, 30, 0, 0, time.UTC)
	svc := marketcache.New(store, up, marketcache.Options{
		Now:    func() time.Time { return now },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx := context.Background()

	q, err := svc.GetCurrentPrice(ctx, "AAPL", false)
	if err != nil || q == nil || !q.Price.Equal(d("150")) {
		t.Fatalf("GetCurrentPrice() = %+v, %v", q, err)
	}
	svc.Close() // flush the background write

	// 20 minutes later, the provider is down: the stale entry is served.
	now = now.Add(20 * time.Minute)
	up.down.Store(true)
	q, err = svc.GetCurrentPrice(ctx, "AAPL", false)
	if err != nil || q == nil || !q.Price.Equal(d("150")) {
		t.Fatalf("GetCurrentPrice() on provider failure = %+v, %v, want the stale 150", q, err)
	}
	if want := now.Add(-20 * time.Minute); !q.LastUpdated.Equal(want) {
		t.Errorf("stale quote updated at %v, want %v", q.LastUpdated, want)
	}

	prices, err := svc.GetBatchPrices(ctx, []string{"AAPL", "MSFT"}, false)
	if err != nil {
		t.Fatalf("GetBatchPrices() error = %v", err)
	}
	if _, ok := prices["MSFT"]; ok || len(prices) != 1 {
		t.Errorf("GetBatchPrices() = %v, want only the stale AAPL", prices)
	}
	if n := up.calls.Load(); n != 3 {
		t.Errorf("upstream called %d times, want 3", n)
	}
	svc.Close()
}
