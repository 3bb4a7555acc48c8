// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fieldpulse/internal/auth"
	"github.com/tomtom215/fieldpulse/internal/collector"
	"github.com/tomtom215/fieldpulse/internal/config"
	"github.com/tomtom215/fieldpulse/internal/detection"
	"github.com/tomtom215/fieldpulse/internal/geo"
	"github.com/tomtom215/fieldpulse/internal/logging"
	"github.com/tomtom215/fieldpulse/internal/models"
	"github.com/tomtom215/fieldpulse/internal/recorder"
	"github.com/tomtom215/fieldpulse/internal/session"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

// recordedCall is one call seen by fakeRecorder.
type recordedCall struct {
	partial   recorder.Partial
	sessionID string
	cred      auth.Credential
	async     bool
}

type fakeRecorder struct {
	mu     sync.Mutex
	calls  []recordedCall
	result *models.ActivityEvent
	done   chan struct{}
}

func newFakeRecorder(result *models.ActivityEvent) *fakeRecorder {
	return &fakeRecorder{result: result, done: make(chan struct{}, 8)}
}

func (f *fakeRecorder) capture(ctx context.Context, p recorder.Partial, async bool) {
	call := recordedCall{partial: p, async: async}
	if s, ok := session.FromContext(ctx); ok {
		call.sessionID = s.ID()
	}
	call.cred, _ = auth.CredentialFromContext(ctx)

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeRecorder) Record(ctx context.Context, p recorder.Partial) *models.ActivityEvent {
	f.capture(ctx, p, false)
	return f.result
}

func (f *fakeRecorder) RecordAsync(ctx context.Context, p recorder.Partial) {
	f.capture(ctx, p, true)
	f.done <- struct{}{}
}

func (f *fakeRecorder) lastCall(t *testing.T) recordedCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("recorder was not called")
	}
	return f.calls[len(f.calls)-1]
}

type fakePositions struct {
	mu       sync.Mutex
	readings map[string]geo.Reading
	reasons  map[string]geo.Reason
	err      error
}

func newFakePositions() *fakePositions {
	return &fakePositions{readings: map[string]geo.Reading{}, reasons: map[string]geo.Reason{}}
}

func (f *fakePositions) Report(_ context.Context, id string, r geo.Reading) (geo.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return geo.Status{SessionID: id, State: geo.StateRequesting}, f.err
	}
	f.readings[id] = r
	return geo.Status{SessionID: id, State: geo.StateFound, Position: &r}, nil
}

func (f *fakePositions) ReportError(_ context.Context, id string, reason geo.Reason) (geo.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons[id] = reason
	return geo.Status{SessionID: id, State: geo.StateError, Reason: reason, Message: reason.Message()}, nil
}

func (f *fakePositions) Status(id string) (geo.Status, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.readings[id]; ok {
		return geo.Status{SessionID: id, State: geo.StateFound, Position: &r}, true
	}
	return geo.Status{SessionID: id, State: geo.StateIdle}, false
}

func (f *fakePositions) Remove(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.readings[id]
	delete(f.readings, id)
	return ok
}

type fakeSnapshots struct {
	mu        sync.Mutex
	cached    *models.AnalyticsSnapshot
	fresh     *models.AnalyticsSnapshot
	err       error
	refreshes int
	builds    []collector.ListQuery
	flagged   []detection.Flagged
}

func (f *fakeSnapshots) Snapshot() (*models.AnalyticsSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cached, f.cached != nil
}

func (f *fakeSnapshots) Refresh(context.Context) (*models.AnalyticsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.err != nil {
		return nil, f.err
	}
	f.cached = f.fresh
	return f.fresh, nil
}

func (f *fakeSnapshots) Build(_ context.Context, q collector.ListQuery) (*models.AnalyticsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds = append(f.builds, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.fresh, nil
}

func (f *fakeSnapshots) Suspicious() []detection.Flagged {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flagged
}

// envelope mirrors models.APIResponse with raw data.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func testChiMiddleware() *ChiMiddleware {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://crm.example.com"}
	cfg.RateLimitDisabled = true
	return NewChiMiddleware(cfg)
}

func newTestRouter(t *testing.T, deps Dependencies, authMW *auth.Middleware) http.Handler {
	t.Helper()
	if deps.CORSOrigins == nil {
		deps.CORSOrigins = []string{"https://crm.example.com"}
	}
	return NewRouter(NewHandler(deps), authMW, testChiMiddleware()).SetupChi()
}

func do(t *testing.T, h http.Handler, method, target, body string, header http.Header) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
		}
	}
	return rec, env
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async call")
	}
}

var errBoom = errors.New("boom")

func securityConfig(origins []string, reqs int, window time.Duration, disabled bool) config.SecurityConfig {
	return config.SecurityConfig{
		CORSOrigins:       origins,
		RateLimitReqs:     reqs,
		RateLimitWindow:   window,
		RateLimitDisabled: disabled,
	}
}
