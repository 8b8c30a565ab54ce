package marketcache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// batchRequest describes one batch fetch of the same key for many symbols.
type batchRequest[T any] struct {
	codec   codec[T]
	symbols []string
	key     string
	timeout time.Duration
	force   bool
	fetch   func(context.Context, Upstream, []string) (map[string]T, error)
}

// fetchBatch returns the values of key for a set of symbols.
//
// Fresh entries come from one bulk cache lookup, every other symbol is covered
// by exactly one upstream batch call. Symbols the upstream did not answer fall
// back to their cache entry whatever its age, and are missing from the result
// when they have none.
//
// The result is never nil. A non-nil error comes with the partial result
// gathered so far.
func fetchBatch[T any](ctx context.Context, s *Service, r batchRequest[T]) (map[string]T, error) {
	class := r.codec.class
	symbols := normalizeSymbols(r.symbols)
	result := make(map[string]T, len(symbols))
	if len(symbols) == 0 {
		return result, nil
	}

	needsFetch := symbols
	if r.force {
		for range symbols {
			s.metrics.lookup(class, "forced")
		}
	} else {
		entries, err := s.store.LookupMany(ctx, symbols, r.key)
		if err != nil {
			s.logger.WarnContext(ctx, "bulk cache read failed, treating as misses",
				slog.String("key", r.key), slog.Int("symbols", len(symbols)), slog.Any("err", err))
			entries = nil
		}
		now := s.now()
		needsFetch = make([]string, 0, len(symbols))
		for _, symbol := range symbols {
			e, ok := entries[symbol]
			if !ok {
				s.metrics.lookup(class, "miss")
				needsFetch = append(needsFetch, symbol)
				continue
			}
			if !s.policy.Fresh(class, e.LastUpdated, now) {
				s.metrics.lookup(class, "stale")
				needsFetch = append(needsFetch, symbol)
				continue
			}
			v, err := r.codec.decode(e)
			if err != nil {
				s.logger.WarnContext(ctx, "ignoring unreadable cache entry",
					slog.String("symbol", symbol), slog.String("key", r.key), slog.Any("err", err))
				s.metrics.lookup(class, "miss")
				needsFetch = append(needsFetch, symbol)
				continue
			}
			s.metrics.lookup(class, "hit")
			result[symbol] = v
		}
	}
	if len(needsFetch) == 0 {
		return result, nil
	}

	start := time.Now()
	fetched, err := callWithTimeout(ctx, r.timeout, func(ctx context.Context) (map[string]T, error) {
		return r.fetch(ctx, s.upstream, needsFetch)
	})
	s.metrics.upstream(class, start, err)
	if err != nil {
		s.logger.WarnContext(ctx, "upstream batch failed, falling back to cache",
			slog.String("key", r.key), slog.Int("symbols", len(needsFetch)), slog.Any("err", err))
	}

	at := s.now()
	wanted := make(map[string]bool, len(needsFetch))
	for _, symbol := range needsFetch {
		wanted[symbol] = true
	}
	entries := make([]Entry, 0, len(fetched))
	for symbol, v := range fetched {
		symbol = NormalizeSymbol(symbol)
		if !wanted[symbol] || !r.codec.valid(v) {
			continue
		}
		// Only the first answer for a symbol counts.
		wanted[symbol] = false
		r.codec.stamp(&v, symbol, at)
		result[symbol] = v
		e, err := r.codec.encode(symbol, r.key, v, at)
		if err != nil {
			s.logger.ErrorContext(ctx, "cannot encode cache entry (not cached)",
				slog.String("symbol", symbol), slog.String("key", r.key), slog.Any("err", err))
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) > 0 {
		s.writes.Go(ctx, class, fmt.Sprintf("%d symbols", len(entries)), func(ctx context.Context) error {
			return s.store.UpsertMany(ctx, entries)
		})
	}

	missing := make([]string, 0, len(needsFetch))
	for _, symbol := range needsFetch {
		if _, ok := result[symbol]; !ok {
			missing = append(missing, symbol)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}
	if err == nil {
		s.logger.InfoContext(ctx, "upstream batch answered partially, falling back to cache",
			slog.String("key", r.key), slog.Int("missing", len(missing)), slog.Int("requested", len(needsFetch)))
	}

	stale, err := s.store.LookupMany(ctx, missing, r.key)
	if err != nil {
		return result, fmt.Errorf("reading %d stale %q entries from cache: %w", len(missing), r.key, err)
	}
	for _, symbol := range missing {
		served := false
		if e, ok := stale[symbol]; ok {
			if v, err := r.codec.decode(e); err == nil {
				result[symbol] = v
				served = true
			} else {
				s.logger.WarnContext(ctx, "ignoring unreadable cache entry",
					slog.String("symbol", symbol), slog.String("key", r.key), slog.Any("err", err))
			}
		}
		s.metrics.fallback(class, served)
	}
	return result, nil
}
