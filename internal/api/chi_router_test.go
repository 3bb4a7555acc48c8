// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/fieldpulse/internal/models"
	"github.com/tomtom215/fieldpulse/internal/session"
	ws "github.com/tomtom215/fieldpulse/internal/websocket"
)

func TestRouter_CommonHeaders(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, Dependencies{Snapshots: &fakeSnapshots{cached: &models.AnalyticsSnapshot{}}}, nil)
	resp, _ := do(t, h, http.MethodGet, "/api/v1/analytics/snapshot", "", http.Header{"X-Request-ID": {"req-1"}})

	if got := resp.Header().Get("X-Request-ID"); got != "req-1" {
		t.Errorf("X-Request-ID = %q, want req-1", got)
	}
	if resp.Header().Get(session.Header) == "" {
		t.Error("expected a generated session id on API responses")
	}
	if got := resp.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, Dependencies{}, nil)

	tests := []struct {
		origin    string
		wantAllow string
	}{
		{origin: "https://crm.example.com", wantAllow: "https://crm.example.com"},
		{origin: "https://evil.example.com", wantAllow: ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/track", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
			t.Errorf("%s: Allow-Origin = %q, want %q", tt.origin, got, tt.wantAllow)
		}
	}
}

func TestRouter_NotFound(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, Dependencies{}, nil)
	resp, _ := do(t, h, http.MethodGet, "/api/v1/reports", "", nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.Code)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	h := NewRouter(NewHandler(Dependencies{Snapshots: &fakeSnapshots{cached: &models.AnalyticsSnapshot{}}}), nil, NewChiMiddleware(cfg)).SetupChi()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, _ := do(t, h, http.MethodGet, "/api/v1/analytics/suspicious", "", nil)
		codes = append(codes, resp.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// Health probes are outside the limited group.
	if resp, _ := do(t, h, http.MethodGet, "/health/live", "", nil); resp.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.Code)
	}
}

func TestChiMiddlewareConfigFromSecurity(t *testing.T) {
	t.Parallel()

	cfg := ChiMiddlewareConfigFromSecurity(securityConfig([]string{"https://a.example"}, 0, 0, true))
	if cfg.RateLimitRequests != 100 || cfg.RateLimitWindow != time.Minute {
		t.Errorf("zero values must keep defaults, got %d/%v", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if !cfg.RateLimitDisabled || len(cfg.CORSAllowedOrigins) != 1 {
		t.Errorf("cfg = %+v", cfg)
	}

	cfg = ChiMiddlewareConfigFromSecurity(securityConfig(nil, 5, time.Second, false))
	if cfg.RateLimitRequests != 5 || cfg.RateLimitWindow != time.Second {
		t.Errorf("overrides not applied: %d/%v", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
}

func TestRouter_WebSocket(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.Serve(ctx) }()

	server := httptest.NewServer(newTestRouter(t, Dependencies{Hub: hub}, nil))
	t.Cleanup(server.Close)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws"

	t.Run("origin required", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if resp != nil && resp.Body != nil {
			defer resp.Body.Close()
		}
		if err == nil {
			t.Fatal("dial without Origin should fail")
		}
		if resp == nil || resp.StatusCode != http.StatusForbidden {
			t.Errorf("response = %v, want 403", resp)
		}
	})

	t.Run("allowed origin receives broadcasts", func(t *testing.T) {
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://crm.example.com"}})
		if resp != nil && resp.Body != nil {
			defer resp.Body.Close()
		}
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()

		deadline := time.Now().Add(2 * time.Second)
		for hub.ClientCount() == 0 {
			if time.Now().After(deadline) {
				t.Fatal("client never registered")
			}
			time.Sleep(10 * time.Millisecond)
		}

		hub.BroadcastSnapshot(&models.AnalyticsSnapshot{TotalActivities: 4})

		if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			t.Fatal(err)
		}
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if msg["type"] != ws.MessageTypeSnapshotUpdate {
			t.Errorf("type = %v, want %s", msg["type"], ws.MessageTypeSnapshotUpdate)
		}
	})
}
