package marketcache

import (
	"context"
	"fmt"
	"time"
)

// callWithTimeout runs fn and waits for it at most d.
//
// When the timer fires first, the context passed to fn is canceled and the
// eventual result of fn is dropped: it is never returned, so it can never be
// written to the cache.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	// Buffered so that a late fn does not block forever.
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("upstream call abandoned after %v: %w", d, ctx.Err())
	}
}
