// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fieldpulse/internal/breaker"
	"github.com/tomtom215/fieldpulse/internal/config"
	"github.com/tomtom215/fieldpulse/internal/metrics"
	"github.com/tomtom215/fieldpulse/internal/models"
)

const (
	recordPath = "/activities/record"
	listPath   = "/activities"
	statsPath  = "/activities/stats"

	maxResponseBytes = 8 << 20
	maxErrorBody     = 512
)

var (
	// ErrNonSuccess is wrapped by every *StatusError.
	ErrNonSuccess = errors.New("collector: non-success status")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("collector: temporarily unavailable")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("collector %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("collector %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrNonSuccess }

// clientError reports whether err is a 4xx response.
func clientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500
}

// ListQuery selects the event window.
type ListQuery struct {
	Limit      int
	TimeFilter string
	Action     models.Action
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.TimeFilter != "" {
		v.Set("time_filter", q.TimeFilter)
	}
	if q.Action != "" {
		v.Set("action", string(q.Action))
	}
	return v
}

// Client talks to the collection backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *breaker.Breaker[[]byte]
}

// New creates a client from cfg. The configured token is the service
// credential used when a call carries no caller token.
func New(cfg config.CollectorConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker.New[[]byte]("collector", breaker.Settings{
			MinRequests:  cfg.BreakerMinRequests,
			FailureRatio: cfg.BreakerFailureRatio,
			OpenTimeout:  cfg.BreakerOpenTimeout,
			IsSuccessful: func(err error) bool { return err == nil || clientError(err) },
		}),
	}
}

// BreakerState returns the circuit breaker state.
func (c *Client) BreakerState() string { return c.breaker.State() }

// Record posts ev under the caller's bearer token and returns the id the
// backend echoed, if any.
func (c *Client) Record(ctx context.Context, token string, ev *models.ActivityEvent) (string, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}

	body, err := c.do(ctx, "record", http.MethodPost, c.baseURL+recordPath, token, payload)
	if err != nil {
		return "", err
	}
	return echoedID(body), nil
}

// List fetches the event window.
func (c *Client) List(ctx context.Context, q ListQuery) ([]models.ActivityEvent, error) {
	endpoint := c.baseURL + listPath
	if qs := q.values().Encode(); qs != "" {
		endpoint += "?" + qs
	}

	body, err := c.do(ctx, "list", http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, err
	}

	var events []models.ActivityEvent
	if err := decodeEnveloped(body, &events); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	return events, nil
}

// Stats fetches the pre-aggregated summary.
func (c *Client) Stats(ctx context.Context) (*models.ExternalStats, error) {
	body, err := c.do(ctx, "stats", http.MethodGet, c.baseURL+statsPath, "", nil)
	if err != nil {
		return nil, err
	}

	var stats models.ExternalStats
	if err := decodeEnveloped(body, &stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return &stats, nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint, token string, payload []byte) ([]byte, error) {
	if token == "" {
		token = c.token
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader = http.NoBody
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("collector %s: %w", op, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("collector %s: read response: %w", op, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: truncate(string(data), maxErrorBody)}
		}
		return data, nil
	})
	if breaker.IsRejected(err) {
		err = fmt.Errorf("collector %s: %w: %w", op, ErrUnavailable, err)
	}
	metrics.RecordCollectorRequest(op, time.Since(start), err)
	return body, err
}

// decodeEnveloped decodes body into v, unwrapping {"data": ...} when present.
func decodeEnveloped(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
			trimmed = env.Data
		}
	}
	return json.Unmarshal(trimmed, v)
}

// echoedID extracts {"id"} or {"data":{"id"}} from a record response.
// Numeric ids are rendered in decimal.
func echoedID(body []byte) string {
	var probe struct {
		ID   json.RawMessage `json:"id"`
		Data struct {
			ID json.RawMessage `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &probe); err != nil {
		return ""
	}
	raw := probe.ID
	if len(raw) == 0 {
		raw = probe.Data.ID
	}
	return rawID(raw)
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n]
	}
	return s
}
