package marketcache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/etnz/marketcache/date"
	"github.com/shopspring/decimal"
)

// series builds a chronological, deduplicated history from points inside rng.
func series(points []Point, rng date.Range) *date.History[decimal.Decimal] {
	h := new(date.History[decimal.Decimal])
	for _, p := range points {
		if rng.Contains(p.Date) {
			h.Append(p.Date, p.Price)
		}
	}
	return h
}

func pointsOf(h *date.History[decimal.Decimal]) []Point {
	points := make([]Point, 0, h.Len())
	for day, price := range h.Values() {
		points = append(points, Point{Date: day, Price: price})
	}
	return points
}

// complete reports whether a cached series can answer rng without asking upstream.
//
// The series must reach the most recent day the range can have data for
// (within one trading day of min(to, today)) and hold no hole longer than
// the policy's MaxGap, unless MaxGap is negative.
func (s *Service) complete(h *date.History[decimal.Decimal], rng date.Range, today date.Date) bool {
	if h.Len() == 0 {
		return false
	}
	latest, _ := h.Latest()
	if latest.Before(previousWeekday(date.Min(rng.To, today))) {
		return false
	}
	return s.policy.MaxGap < 0 || h.MaxGap() <= s.policy.MaxGap
}

// previousWeekday returns the last Monday to Friday strictly before day.
func previousWeekday(day date.Date) date.Date {
	day = day.Add(-1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.Add(-1)
	}
	return day
}

// fetchRange returns the daily closes of symbol in rng, in date order.
//
// An empty slice means the series is unavailable right now.
func fetchRange(ctx context.Context, s *Service, symbol string, rng date.Range) []Point {
	cached, err := s.store.Series(ctx, symbol, rng.From, rng.To)
	if err != nil {
		s.logger.WarnContext(ctx, "cached series read failed, treating as a miss",
			slog.String("symbol", symbol), slog.String("range", rng.String()), slog.Any("err", err))
		cached = nil
	}
	if h := series(cached, rng); s.complete(h, rng, date.On(s.now())) {
		s.metrics.lookup(ClassHistory, "hit")
		return pointsOf(h)
	}
	s.metrics.lookup(ClassHistory, "miss")

	start := time.Now()
	fetched, err := callWithTimeout(ctx, s.timeouts.History, func(ctx context.Context) ([]Point, error) {
		return s.upstream.FetchDaily(ctx, symbol, rng.From, rng.To)
	})
	h := series(fetched, rng)
	if err == nil && h.Len() == 0 {
		err = fmt.Errorf("daily series of %s in %s: %w", symbol, rng, ErrNoData)
	}
	s.metrics.upstream(ClassHistory, start, err)
	if err != nil {
		s.logger.WarnContext(ctx, "upstream series failed, series unavailable",
			slog.String("symbol", symbol), slog.String("range", rng.String()), slog.Any("err", err))
		s.metrics.fallback(ClassHistory, false)
		return []Point{}
	}

	points := pointsOf(h)
	toWrite := slices.Clone(points)
	s.writes.Go(ctx, ClassHistory, symbol, func(ctx context.Context) error {
		return s.store.UpsertSeries(ctx, symbol, toWrite)
	})
	return points
}
