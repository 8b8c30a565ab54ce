package renderer

import (
	"fmt"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/date"
	"github.com/shopspring/decimal"
)

type historyView struct {
	Symbol      string
	Period      string
	First, Last decimal.Decimal
	Return      decimal.Decimal
	Rows        []historyRow
}

type historyRow struct {
	Date   date.Date
	Price  decimal.Decimal
	Change string
}

var hundred = decimal.NewFromInt(100)

// change returns the percent change from prev to cur, undefined when prev is zero.
func change(prev, cur decimal.Decimal) (decimal.Decimal, bool) {
	if prev.IsZero() {
		return decimal.Zero, false
	}
	return cur.Sub(prev).Div(prev).Mul(hundred), true
}

// HistoryMarkdown renders daily closes with their day over day change and
// the return over the whole series.
func HistoryMarkdown(symbol string, points []marketcache.Point) string {
	v := historyView{Symbol: symbol}
	for i, p := range points {
		row := historyRow{Date: p.Date, Price: p.Price}
		if i > 0 {
			if c, ok := change(points[i-1].Price, p.Price); ok {
				row.Change = formatPercent(c)
			}
		}
		v.Rows = append(v.Rows, row)
	}
	if n := len(points); n > 0 {
		v.Period = fmt.Sprintf("%s to %s", points[0].Date, points[n-1].Date)
		v.First, v.Last = points[0].Price, points[n-1].Price
		v.Return, _ = change(v.First, v.Last)
	}
	return renderTemplate("history", "history.md", nil, v)
}
