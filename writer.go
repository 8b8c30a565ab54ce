package marketcache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// writer runs cache writes in the background.
//
// A write never blocks the request that scheduled it. Failures are logged and
// counted, never returned.
type writer struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

// Go schedules write. The write outlives ctx cancellation but keeps its values.
func (w *writer) Go(ctx context.Context, class Class, symbol string, write func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, w.timeout)
		defer cancel()
		if err := write(ctx); err != nil {
			w.metrics.writeError(class)
			w.logger.ErrorContext(ctx, "cache write failed (ignored)",
				slog.String("class", class.String()),
				slog.String("symbol", symbol),
				slog.Any("err", err))
		}
	}()
}

// Wait blocks until every scheduled write has returned.
func (w *writer) Wait() { w.wg.Wait() }
