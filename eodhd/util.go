package eodhd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// logTransport logs every request sent to the provider.
type logTransport struct {
	base   http.RoundTripper
	logger *slog.Logger
}

// RoundTrip implements the http.RoundTripper interface.
func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.DebugContext(req.Context(), "provider request failed",
			slog.String("method", req.Method), slog.String("path", req.URL.Path), slog.Any("err", err))
		return nil, err
	}
	t.logger.DebugContext(req.Context(), fmt.Sprintf("%v %v%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status),
		slog.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// StatusError is returned when the provider answers with a non 200 status.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: %d %s", e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("GET %s: %d %s: %s", e.Path, e.Code, http.StatusText(e.Code), e.Body)
}

// jwget performs an HTTP GET request to path under the API root and
// unmarshals the JSON response body into data.
//
// Requests wait for the client rate limiter and go through its circuit
// breaker. Errors never contain the API key.
func (c *Client) jwget(ctx context.Context, path string, query url.Values, data any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("GET %s: waiting for rate limiter: %w", path, err)
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.apiKey)
	query.Set("fmt", "json")
	addr := c.base + path + "?" + query.Encode()

	_, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", path, err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			var uerr *url.Error
			if errors.As(err, &uerr) {
				err = uerr.Err
			}
			return nil, fmt.Errorf("GET %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			return nil, &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, resp.Body); err != nil {
			return nil, fmt.Errorf("GET %s: reading body: %w", path, err)
		}
		if err := json.Unmarshal(buf.Bytes(), data); err != nil {
			return nil, fmt.Errorf("GET %s: decoding body: %w", path, err)
		}
		return nil, nil
	})
	return err
}

// number is a decimal that the provider sends either as a JSON number, a
// string, "NA" or null. Missing values decode as zero.
type number struct{ decimal.Decimal }

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	switch s {
	case "", "null", "NA", "N/A", "-":
		n.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", b, err)
	}
	n.Decimal = d
	return nil
}

// oneOrMany decodes raw as a list of T, accepting a single object for a one element list.
func oneOrMany[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return []T{v}, nil
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}
