package renderer

import (
	"strings"

	"github.com/etnz/marketcache"
)

type chartView struct {
	marketcache.Chart
	Intraday bool
}

// ChartMarkdown renders chart bars, with times for intraday intervals and
// days otherwise.
func ChartMarkdown(c *marketcache.Chart) string {
	v := chartView{
		Chart:    *c,
		Intraday: strings.HasSuffix(c.Interval, "m") || strings.HasSuffix(c.Interval, "h"),
	}
	return renderTemplate("chart", "chart.md", nil, v)
}
