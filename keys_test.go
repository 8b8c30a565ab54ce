package marketcache

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func TestKeys(t *testing.T) {
	testCases := []struct {
		name string
		got  string
		want string
	}{
		{"price", PriceKey(), "price"},
		{"summary sorted", SummaryKey([]string{"Highlights", "General"}), "summary:General,Highlights"},
		{"summary dedup", SummaryKey([]string{" General", "General", ""}), "summary:General"},
		{"chart lowercase", ChartKey("6MO", "1D"), "chart:6mo:1d"},
		{"symbol", NormalizeSymbol(" aapl.us "), "AAPL.US"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %q, want %q", tc.got, tc.want)
			}
		})
	}
}

func TestSearchKey(t *testing.T) {
	a := SearchKey("Apple  Inc", SearchOptions{QuotesCount: 10})
	if b := SearchKey(" apple inc", SearchOptions{QuotesCount: 10}); a != b {
		t.Errorf("SearchKey() differs on whitespace and case: %q != %q", a, b)
	}
	if b := SearchKey("apple inc", SearchOptions{QuotesCount: 10, NewsCount: 1}); a == b {
		t.Errorf("SearchKey() ignores options: %q", a)
	}
	if !strings.HasPrefix(a, "search:") || !strings.HasSuffix(a, ":apple inc") {
		t.Errorf("SearchKey() = %q, want search:<hash>:apple inc", a)
	}
}

func TestSearchKey_LongQuery(t *testing.T) {
	long := strings.Repeat("ünïcode ", 40)
	a := SearchKey(long+"one", SearchOptions{})
	b := SearchKey(long+"two", SearchOptions{})
	if a == b {
		t.Errorf("SearchKey() maps two long queries to the same key %q", a)
	}
	for _, key := range []string{a, b} {
		if n := utf8.RuneCountInString(key); n > 191 {
			t.Errorf("SearchKey() = %q has %d characters, want at most 191", key, n)
		}
	}
	if a != SearchKey(strings.ToUpper(long)+"ONE", SearchOptions{}) {
		t.Errorf("SearchKey() of a long query depends on case")
	}
	if short := SearchKey("apple", SearchOptions{}); !strings.HasSuffix(short, ":apple") {
		t.Errorf("SearchKey(apple) = %q, want the query kept verbatim", short)
	}
}

func TestNormalizeSymbols(t *testing.T) {
	got := normalizeSymbols([]string{"msft", "AAPL", " aapl", "", "GOOG"})
	want := []string{"AAPL", "GOOG", "MSFT"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("normalizeSymbols() mismatch (-want +got):\n%s", diff)
	}
}
