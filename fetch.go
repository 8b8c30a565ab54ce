package marketcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// request describes one single-item fetch.
type request[T any] struct {
	codec   codec[T]
	symbol  string
	key     string
	timeout time.Duration
	force   bool
	fetch   func(context.Context, Upstream) (T, error)
}

// read returns the decoded cache entry for (symbol, key), regardless of its age.
//
// A corrupt entry is logged and reported as absent.
func read[T any](ctx context.Context, s *Service, c codec[T], symbol, key string) (v T, lastUpdated time.Time, found bool, err error) {
	e, found, err := s.store.Lookup(ctx, symbol, key)
	if err != nil || !found {
		return v, lastUpdated, false, err
	}
	v, err = c.decode(e)
	if err != nil {
		s.logger.WarnContext(ctx, "ignoring unreadable cache entry",
			slog.String("symbol", symbol), slog.String("key", key), slog.Any("err", err))
		return v, lastUpdated, false, nil
	}
	return v, e.LastUpdated, true, nil
}

// fetchOne returns the value of (symbol, key).
//
// A fresh cache entry is returned without calling the upstream. Otherwise the
// upstream answer is returned and written back in the background. When the
// upstream fails, any cache entry is returned whatever its age. found is false
// only when the upstream failed and nothing was ever cached.
func fetchOne[T any](ctx context.Context, s *Service, r request[T]) (v T, found bool, err error) {
	class := r.codec.class
	if r.force {
		s.metrics.lookup(class, "forced")
	} else {
		v, lastUpdated, found, err := read(ctx, s, r.codec, r.symbol, r.key)
		switch {
		case err != nil:
			// The upstream can still answer.
			s.logger.WarnContext(ctx, "cache read failed, treating as a miss",
				slog.String("symbol", r.symbol), slog.String("key", r.key), slog.Any("err", err))
			s.metrics.lookup(class, "miss")
		case !found:
			s.metrics.lookup(class, "miss")
		case s.policy.Fresh(class, lastUpdated, s.now()):
			s.metrics.lookup(class, "hit")
			return v, true, nil
		default:
			s.metrics.lookup(class, "stale")
		}
	}

	v, err = refresh(ctx, s, r)
	if err == nil {
		return v, true, nil
	}
	s.logger.WarnContext(ctx, "upstream failed, falling back to cache",
		slog.String("symbol", r.symbol), slog.String("key", r.key), slog.Any("err", err))

	v, _, found, err = read(ctx, s, r.codec, r.symbol, r.key)
	if err != nil {
		return v, false, fmt.Errorf("reading %s %q from cache: %w", r.symbol, r.key, err)
	}
	s.metrics.fallback(class, found)
	return v, found, nil
}

// refresh fetches (symbol, key) from upstream and schedules its cache write.
//
// Concurrent refreshes of the same entry share one upstream call. The shared
// call is detached from the caller's cancellation, each caller still stops
// waiting when its own ctx is done.
func refresh[T any](ctx context.Context, s *Service, r request[T]) (T, error) {
	var zero T
	class := r.codec.class
	ch := s.flight.DoChan(r.symbol+"\x00"+r.key, func() (any, error) {
		detached := context.WithoutCancel(ctx)
		start := time.Now()
		v, err := callWithTimeout(detached, r.timeout, func(ctx context.Context) (T, error) {
			return r.fetch(ctx, s.upstream)
		})
		if err == nil && !r.codec.valid(v) {
			err = fmt.Errorf("%s for %s: %w", class, r.symbol, ErrNoData)
		}
		s.metrics.upstream(class, start, err)
		if err != nil {
			return nil, err
		}

		// Stamped at completion, so a slow answer is never marked fresher than it is.
		at := s.now()
		r.codec.stamp(&v, r.symbol, at)
		e, err := r.codec.encode(r.symbol, r.key, v, at)
		if err != nil {
			s.logger.ErrorContext(ctx, "cannot encode cache entry (not cached)",
				slog.String("symbol", r.symbol), slog.String("key", r.key), slog.Any("err", err))
			return v, nil
		}
		s.writes.Go(detached, class, r.symbol, func(ctx context.Context) error {
			return s.store.Upsert(ctx, e)
		})
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, errors.New("unexpected shared refresh result")
		}
		return v, nil
	}
}
