package date

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Lookback is a span of time ending on a given day, written like "5d", "3mo",
// "1y", "ytd" or "max".
type Lookback struct {
	n    int
	unit string // "d", "wk", "mo", "y", "ytd" or "max"
}

// earliest is the first day of a "max" lookback.
var earliest = New(1970, 1, 1)

// ParseLookback parses a lookback such as "5d", "2wk", "6mo", "10y", "ytd" or "max".
func ParseLookback(s string) (Lookback, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "ytd", "max":
		return Lookback{unit: s}, nil
	}
	for _, unit := range []string{"wk", "mo", "d", "y"} {
		num, ok := strings.CutSuffix(s, unit)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil || n <= 0 {
			return Lookback{}, fmt.Errorf("invalid lookback %q", s)
		}
		return Lookback{n: n, unit: unit}, nil
	}
	return Lookback{}, fmt.Errorf("unknown lookback %q", s)
}

// monthsBefore returns the same day n months before d, clamped to the last
// day of that month: one month before March 31 is February 29 or 28.
func monthsBefore(d Date, n int) Date {
	first := New(d.y, d.m-time.Month(n), 1)
	last := New(first.y, first.m+1, 0)
	return New(first.y, first.m, min(d.d, last.d))
}

// Range returns the range covered by the lookback, ending on day.
func (l Lookback) Range(day Date) Range {
	from := day
	switch l.unit {
	case "d":
		from = day.Add(1 - l.n)
	case "wk":
		from = day.Add(1 - 7*l.n)
	case "mo":
		from = monthsBefore(day, l.n).Add(1)
	case "y":
		from = monthsBefore(day, 12*l.n).Add(1)
	case "ytd":
		from = New(day.y, 1, 1)
	case "max":
		from = earliest
	}
	return Range{From: from, To: day}
}

func (l Lookback) String() string {
	if l.n == 0 {
		return l.unit
	}
	return strconv.Itoa(l.n) + l.unit
}

// Span resolves a range given either by its bounds or by a lookback ending on
// to. An empty to means today, and without from nor lookback the span is one
// year.
func Span(from, to, lookback string, today Date) (Range, error) {
	end := today
	if to != "" {
		d, err := Parse(to)
		if err != nil {
			return Range{}, err
		}
		end = d
	}
	if from != "" {
		start, err := Parse(from)
		if err != nil {
			return Range{}, err
		}
		return NewRange(start, end)
	}
	if lookback == "" {
		lookback = "1y"
	}
	lb, err := ParseLookback(lookback)
	if err != nil {
		return Range{}, err
	}
	return lb.Range(end), nil
}
