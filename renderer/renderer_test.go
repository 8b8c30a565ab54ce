package renderer

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/date"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var updated = time.Date(2024, time.June, 3, 15, 30, 0, 0, time.UTC)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// document is the parts of a rendered markdown document the tests look at.
type document struct {
	headings []string
	tables   [][][]string // table, row, cell; the header is row 0
}

func parse(t *testing.T, md string) document {
	t.Helper()
	src := []byte(md)
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(src))

	var doc document
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			doc.headings = append(doc.headings, plain(n, src))
			return ast.WalkSkipChildren, nil
		case east.KindTable:
			doc.tables = append(doc.tables, nil)
		case east.KindTableHeader, east.KindTableRow:
			last := len(doc.tables) - 1
			doc.tables[last] = append(doc.tables[last], nil)
		case east.KindTableCell:
			tbl := doc.tables[len(doc.tables)-1]
			tbl[len(tbl)-1] = append(tbl[len(tbl)-1], plain(n, src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return doc
}

// plain returns the text content of n without its markup.
func plain(n ast.Node, src []byte) string {
	var b strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(src))
		case *ast.String:
			b.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func TestQuoteMarkdown(t *testing.T) {
	q := &marketcache.Quote{
		Symbol:        "AAPL",
		Price:         d("150"),
		Change:        d("2"),
		ChangePercent: d("1.35"),
		Currency:      "USD",
		Sector:        "Technology",
		LastUpdated:   updated,
	}
	doc := parse(t, QuoteMarkdown(q))

	if diff := cmp.Diff([]string{"AAPL"}, doc.headings); diff != "" {
		t.Errorf("QuoteMarkdown() headings mismatch (-want +got):\n%s", diff)
	}
	want := [][][]string{{
		{"Price", "$150.00"},
		{"Change", "+$2.00"},
		{"Change %", "+1.35%"},
		{"Sector", "Technology"},
		{"Last Updated", "2024-06-03 15:30 UTC"},
	}}
	if diff := cmp.Diff(want, doc.tables); diff != "" {
		t.Errorf("QuoteMarkdown() tables mismatch (-want +got):\n%s", diff)
	}
}

func TestQuotesMarkdown(t *testing.T) {
	quotes := map[string]marketcache.Quote{
		"MSFT": {Symbol: "MSFT", Price: d("400"), Change: d("-4"), ChangePercent: d("-1"), Currency: "USD", LastUpdated: updated},
		"AAPL": {Symbol: "AAPL", Price: d("150"), Currency: "USD", LastUpdated: updated},
	}
	out := QuotesMarkdown([]string{"MSFT", "AAPL", "ZZZ", "ZZZ"}, quotes)
	doc := parse(t, out)

	if diff := cmp.Diff([]string{"Prices", "Unavailable"}, doc.headings); diff != "" {
		t.Errorf("QuotesMarkdown() headings mismatch (-want +got):\n%s", diff)
	}
	want := [][][]string{{
		{"Ticker", "Price", "Change", "Change %", "Last Updated"},
		{"AAPL", "$150.00", "-", "0.00%", "2024-06-03 15:30 UTC"},
		{"MSFT", "$400.00", "-$4.00", "-1.00%", "2024-06-03 15:30 UTC"},
	}}
	if diff := cmp.Diff(want, doc.tables); diff != "" {
		t.Errorf("QuotesMarkdown() tables mismatch (-want +got):\n%s", diff)
	}
	if strings.Count(out, "- ZZZ") != 1 {
		t.Errorf("QuotesMarkdown() should list ZZZ once as unavailable, got:\n%s", out)
	}
}

func TestSummaryMarkdown(t *testing.T) {
	s := &marketcache.Summary{
		Symbol:   "AAPL",
		Name:     "Apple Inc",
		Sector:   "Technology",
		Currency: "USD",
		Modules: map[string]json.RawMessage{
			"Highlights": json.RawMessage(`{"MarketCapitalization": 3000000000000, "PERatio": null}`),
			"General":    json.RawMessage(`{"Code": "AAPL", "Name": "Apple Inc", "Phone": "", "Officers": {"0": {"Name": "Tim Cook"}}}`),
		},
		LastUpdated: updated,
	}
	out := SummaryMarkdown(s)
	doc := parse(t, out)

	if diff := cmp.Diff([]string{"Apple Inc (AAPL)", "General", "Highlights"}, doc.headings); diff != "" {
		t.Errorf("SummaryMarkdown() headings mismatch (-want +got):\n%s", diff)
	}
	want := [][][]string{
		{
			{"Sector", "Technology"},
			{"Industry", "-"},
			{"Currency", "USD"},
			{"Last Updated", "2024-06-03 15:30 UTC"},
		},
		{{"Field", "Value"}, {"Code", "AAPL"}, {"Name", "Apple Inc"}},
		{{"Field", "Value"}, {"MarketCapitalization", "3000000000000"}},
	}
	if diff := cmp.Diff(want, doc.tables); diff != "" {
		t.Errorf("SummaryMarkdown() tables mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out, "```json") || !strings.Contains(out, `"Tim Cook"`) {
		t.Errorf("SummaryMarkdown() should render nested fields as JSON, got:\n%s", out)
	}
}

func TestChartMarkdown(t *testing.T) {
	bar := marketcache.Bar{Time: updated, Open: d("1"), High: d("2"), Low: d("0.5"), Close: d("1.5"), Volume: 1000}
	testCases := []struct {
		interval string
		wantTime string
	}{
		{"5m", "2024-06-03 15:30 UTC"},
		{"1h", "2024-06-03 15:30 UTC"},
		{"1d", "2024-06-03"},
		{"1mo", "2024-06-03"},
	}
	for _, tc := range testCases {
		c := &marketcache.Chart{Symbol: "AAPL", Range: "5d", Interval: tc.interval, Bars: []marketcache.Bar{bar}, LastUpdated: updated}
		doc := parse(t, ChartMarkdown(c))
		want := [][][]string{{
			{"Time", "Open", "High", "Low", "Close", "Volume"},
			{tc.wantTime, "1", "2", "0.5", "1.5", "1000"},
		}}
		if diff := cmp.Diff(want, doc.tables); diff != "" {
			t.Errorf("ChartMarkdown(%q) tables mismatch (-want +got):\n%s", tc.interval, diff)
		}
	}
}

func TestSearchMarkdown(t *testing.T) {
	r := &marketcache.SearchResult{
		Query: "apple",
		Quotes: []marketcache.SearchHit{
			{Symbol: "AAPL", Exchange: "US", Name: "Apple Inc", Type: "Common Stock", Currency: "USD", PreviousClose: d("148.5")},
		},
		News: []marketcache.NewsItem{
			{Title: "Apple ships", Link: "https://example.com/a", Published: updated},
		},
	}
	out := SearchMarkdown(r)
	doc := parse(t, out)

	if diff := cmp.Diff([]string{`Search "apple"`, "Securities", "News"}, doc.headings); diff != "" {
		t.Errorf("SearchMarkdown() headings mismatch (-want +got):\n%s", diff)
	}
	want := [][][]string{{
		{"Symbol", "Exchange", "Name", "Type", "Currency", "Prev. Close"},
		{"AAPL", "US", "Apple Inc", "Common Stock", "USD", "$148.50"},
	}}
	if diff := cmp.Diff(want, doc.tables); diff != "" {
		t.Errorf("SearchMarkdown() tables mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out, "- [Apple ships](https://example.com/a) (2024-06-03)") {
		t.Errorf("SearchMarkdown() missing news item, got:\n%s", out)
	}

	empty := SearchMarkdown(&marketcache.SearchResult{Query: "zzzz"})
	if doc := parse(t, empty); len(doc.tables) != 0 || !strings.Contains(empty, "No security matches.") || strings.Contains(empty, "News") {
		t.Errorf("SearchMarkdown() of an empty result = %q", empty)
	}
}

func TestHistoryMarkdown(t *testing.T) {
	points := []marketcache.Point{
		{Date: date.MustParse("2024-05-01"), Price: d("100")},
		{Date: date.MustParse("2024-05-02"), Price: d("110")},
		{Date: date.MustParse("2024-05-03"), Price: d("99")},
	}
	doc := parse(t, HistoryMarkdown("AAPL", points))
	want := [][][]string{
		{
			{"Period", "2024-05-01 to 2024-05-03"},
			{"Start", "100"},
			{"End", "99"},
			{"Return", "-1.00%"},
		},
		{
			{"Date", "Close", "Change"},
			{"2024-05-01", "100", ""},
			{"2024-05-02", "110", "+10.00%"},
			{"2024-05-03", "99", "-10.00%"},
		},
	}
	if diff := cmp.Diff(want, doc.tables); diff != "" {
		t.Errorf("HistoryMarkdown() tables mismatch (-want +got):\n%s", diff)
	}

	if out := HistoryMarkdown("AAPL", nil); !strings.Contains(out, "No price available.") {
		t.Errorf("HistoryMarkdown(nil) = %q", out)
	}
}

func TestFormatPrice(t *testing.T) {
	testCases := []struct {
		amount, currency, want string
	}{
		{"150", "USD", "$150.00"},
		{"1234.5", "USD", "$1,234.50"},
		{"0.125", "USD", "$0.13"},
		{"-2", "USD", "-$2.00"},
		{"150", "", "150.00"},
		{"150", "XYZ", "150.00 XYZ"},
	}
	for _, tc := range testCases {
		if got := formatPrice(d(tc.amount), tc.currency); got != tc.want {
			t.Errorf("formatPrice(%s, %q) = %q, want %q", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestEscape(t *testing.T) {
	if got, want := escape("A | B\n  C"), `A \| B C`; got != want {
		t.Errorf("escape() = %q, want %q", got, want)
	}
}
