package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/date"
	"github.com/etnz/marketcache/renderer"
	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// reply writes value as JSON, or as the markdown rendered by md when the
// request asks for ?format=md.
func reply(w http.ResponseWriter, r *http.Request, value any, md func() string) {
	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		fmt.Fprint(w, md())
		return
	}
	writeJSON(w, http.StatusOK, value)
}

// fail maps err to a status: bad arguments are the client's fault, anything
// else means neither the cache nor the provider could answer.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusServiceUnavailable
	if errors.Is(err, marketcache.ErrInvalidArgument) {
		status = http.StatusBadRequest
	} else {
		s.logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func notFound(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf(format, args...)})
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf(format, args...)})
}

// list splits comma separated query values, accepting the key repeated.
func list(r *http.Request, key string) []string {
	var res []string
	for _, v := range r.URL.Query()[key] {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				res = append(res, item)
			}
		}
	}
	return res
}

func force(r *http.Request) bool {
	f, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	return f
}

func (s *server) handlePrice(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	q, err := s.svc.GetCurrentPrice(r.Context(), ticker, force(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if q == nil {
		notFound(w, "no price available for %q", ticker)
		return
	}
	reply(w, r, q, func() string { return renderer.QuoteMarkdown(q) })
}

func (s *server) handlePrices(w http.ResponseWriter, r *http.Request) {
	symbols := list(r, "symbols")
	if len(symbols) == 0 {
		badRequest(w, "symbols is required")
		return
	}
	quotes, err := s.svc.GetBatchPrices(r.Context(), symbols, force(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	reply(w, r, quotes, func() string {
		requested := make([]string, len(symbols))
		for i, sym := range symbols {
			requested[i] = marketcache.NormalizeSymbol(sym)
		}
		return renderer.QuotesMarkdown(requested, quotes)
	})
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	modules := list(r, "modules")
	if len(modules) == 0 {
		modules = []string{"General"}
	}
	sum, err := s.svc.GetCachedQuoteSummary(r.Context(), ticker, modules, force(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if sum == nil {
		notFound(w, "no summary available for %q", ticker)
		return
	}
	reply(w, r, sum, func() string { return renderer.SummaryMarkdown(sum) })
}

func (s *server) handleChart(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	q := r.URL.Query()
	rng := q.Get("range")
	if rng == "" {
		rng = "1mo"
	}
	c, err := s.svc.GetCachedChart(r.Context(), ticker, rng, q.Get("interval"), force(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if c == nil {
		notFound(w, "no chart available for %q", ticker)
		return
	}
	reply(w, r, c, func() string { return renderer.ChartMarkdown(c) })
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts marketcache.SearchOptions
	for key, dst := range map[string]*int{"quotes": &opts.QuotesCount, "news": &opts.NewsCount} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(w, "invalid %s count %q", key, v)
			return
		}
		*dst = n
	}
	res, err := s.svc.GetCachedSearch(r.Context(), q.Get("q"), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res == nil {
		notFound(w, "no search result available for %q", q.Get("q"))
		return
	}
	reply(w, r, res, func() string { return renderer.SearchMarkdown(res) })
}

// historyRange reads ?from=&to= or ?range=. It defaults to the last year up
// to today.
func (s *server) historyRange(r *http.Request) (date.Date, date.Date, error) {
	q := r.URL.Query()
	rng, err := date.Span(q.Get("from"), q.Get("to"), q.Get("range"), date.On(s.now()))
	return rng.From, rng.To, err
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	from, to, err := s.historyRange(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	points, err := s.svc.GetHistoricalPrices(r.Context(), ticker, from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	symbol := marketcache.NormalizeSymbol(ticker)
	reply(w, r, points, func() string { return renderer.HistoryMarkdown(symbol, points) })
}

func (s *server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.historyRange(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	points, err := s.svc.GetHistoricalBenchmark(r.Context(), from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	reply(w, r, points, func() string { return renderer.HistoryMarkdown(s.svc.Benchmark(), points) })
}
