package marketcache

import (
	"testing"
	"time"
)

func TestPolicyFresh(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC)
	testCases := []struct {
		class Class
		age   time.Duration
		want  bool
	}{
		{ClassPrice, 14 * time.Minute, true},
		{ClassPrice, 15 * time.Minute, false},
		{ClassSummary, 6 * 24 * time.Hour, true},
		{ClassSummary, 7 * 24 * time.Hour, false},
		{ClassSearch, 119 * time.Minute, true},
		{ClassNews, 2 * time.Hour, false},
		{ClassChartIntraday, 16 * time.Minute, false},
		{ClassChart, 23 * time.Hour, true},
		{ClassHistory, 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.class.String(), func(t *testing.T) {
			if got := p.Fresh(tc.class, now.Add(-tc.age), now); got != tc.want {
				t.Errorf("Fresh(%v, age %v) = %v, want %v", tc.class, tc.age, got, tc.want)
			}
		})
	}
}

func TestChartRangesAndIntervals(t *testing.T) {
	if got := ChartRanges(); len(got) != 11 || got[0] != "10y" {
		t.Errorf("ChartRanges() = %v", got)
	}
	for _, iv := range ChartIntervals() {
		if !chartIntervals[iv] {
			t.Errorf("ChartIntervals() lists unsupported %q", iv)
		}
	}
}
