package marketcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// codec converts a class value to and from its cache entry.
type codec[T any] struct {
	class Class
	// valid reports whether an upstream answer is meaningful.
	valid func(T) bool
	// stamp sets the cache identity and the completion time of a fresh value.
	stamp  func(v *T, symbol string, at time.Time)
	encode func(symbol, key string, v T, at time.Time) (Entry, error)
	decode func(e Entry) (T, error)
}

var quoteCodec = codec[Quote]{
	class: ClassPrice,
	valid: Quote.valid,
	stamp: func(q *Quote, symbol string, at time.Time) {
		q.Symbol = symbol
		q.LastUpdated = at
	},
	encode: func(symbol, key string, q Quote, at time.Time) (Entry, error) {
		return Entry{Symbol: symbol, Key: key, Quote: &q, LastUpdated: at}, nil
	},
	decode: func(e Entry) (Quote, error) {
		if e.Quote == nil {
			return Quote{}, errors.New("price entry without quote columns")
		}
		q := *e.Quote
		q.Symbol = e.Symbol
		q.LastUpdated = e.LastUpdated
		return q, nil
	},
}

// jsonCodec stores values as an opaque JSON payload.
func jsonCodec[T any](class Class, valid func(T) bool, stamp func(*T, string, time.Time)) codec[T] {
	return codec[T]{
		class: class,
		valid: valid,
		stamp: stamp,
		encode: func(symbol, key string, v T, at time.Time) (Entry, error) {
			payload, err := json.Marshal(v)
			if err != nil {
				return Entry{}, fmt.Errorf("encoding %s payload: %w", class, err)
			}
			return Entry{Symbol: symbol, Key: key, Payload: payload, LastUpdated: at}, nil
		},
		decode: func(e Entry) (T, error) {
			var v T
			if len(e.Payload) == 0 {
				return v, fmt.Errorf("empty %s payload", class)
			}
			if err := json.Unmarshal(e.Payload, &v); err != nil {
				return v, fmt.Errorf("decoding %s payload: %w", class, err)
			}
			// The entry timestamp is authoritative over the one in the payload.
			stamp(&v, e.Symbol, e.LastUpdated)
			return v, nil
		},
	}
}

var summaryCodec = jsonCodec(ClassSummary, Summary.valid, func(s *Summary, symbol string, at time.Time) {
	s.Symbol = symbol
	s.LastUpdated = at
})

func chartCodec(class Class) codec[Chart] {
	return jsonCodec(class, Chart.valid, func(c *Chart, symbol string, at time.Time) {
		c.Symbol = symbol
		c.LastUpdated = at
	})
}

// Search results live under SearchSymbol and keep their query as identity.
func searchCodec(class Class) codec[SearchResult] {
	return jsonCodec(class, func(SearchResult) bool { return true }, func(r *SearchResult, _ string, at time.Time) {
		r.LastUpdated = at
	})
}
