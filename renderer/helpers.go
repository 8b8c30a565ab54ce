package renderer

import (
	"strings"
	"text/template"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var funcs = template.FuncMap{
	"price":   formatPrice,
	"signed":  formatSigned,
	"percent": formatPercent,
	"num":     func(d decimal.Decimal) string { return d.String() },
	"bold":    func(s string) string { return "**" + s + "**" },
	"esc":     escape,
	"stamp":   stamp,
	"day":     func(t time.Time) string { return t.UTC().Format("2006-01-02") },
}

// formatPrice formats amount in the currency's own notation, e.g. $150.00.
// Unknown or missing currencies fall back to two decimals.
func formatPrice(amount decimal.Decimal, code string) string {
	if money.GetCurrency(code) == nil {
		s := amount.StringFixed(2)
		if code != "" {
			s += " " + code
		}
		return s
	}
	// to get a never nil currency I need to call the Money constructor
	cur := *money.New(0, code).Currency()
	units := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(units.IntPart())
}

// formatSigned is formatPrice with an explicit sign. Zero is "-".
func formatSigned(amount decimal.Decimal, code string) string {
	switch amount.Sign() {
	case 0:
		return "-"
	case 1:
		return "+" + formatPrice(amount, code)
	}
	return formatPrice(amount, code)
}

// formatPercent formats a value already expressed in percent, e.g. +1.35%.
func formatPercent(p decimal.Decimal) string {
	if p.Sign() > 0 {
		return "+" + p.StringFixed(2) + "%"
	}
	return p.StringFixed(2) + "%"
}

// escape makes s safe inside a table cell.
func escape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}
