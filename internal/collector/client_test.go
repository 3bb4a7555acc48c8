// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package collector

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fieldpulse/internal/config"
	"github.com/tomtom215/fieldpulse/internal/models"
)

func newTestClient(url string) *Client {
	return New(config.CollectorConfig{
		BaseURL:             url + "/",
		Token:               "service-token",
		Timeout:             2 * time.Second,
		BreakerMinRequests:  3,
		BreakerFailureRatio: 0.6,
		BreakerOpenTimeout:  time.Hour,
	})
}

func TestClient_Record(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    string
		wantAuth string
		response string
		wantID   string
	}{
		{name: "caller token and nested numeric id", token: "user-token", wantAuth: "Bearer user-token", response: `{"data":{"id":5}}`, wantID: "5"},
		{name: "service token and flat id", wantAuth: "Bearer service-token", response: `{"id":"act-9"}`, wantID: "act-9"},
		{name: "empty body", wantAuth: "Bearer service-token", response: ``, wantID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/activities/record" {
					t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != tt.wantAuth {
					t.Errorf("Authorization = %q, want %q", got, tt.wantAuth)
				}
				var ev models.ActivityEvent
				body, _ := io.ReadAll(r.Body)
				if err := json.Unmarshal(body, &ev); err != nil {
					t.Errorf("decode body: %v", err)
				}
				if ev.Action != models.ActionLogin || ev.SessionID != "s-1" {
					t.Errorf("event = %+v", ev)
				}
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			c := newTestClient(srv.URL)
			id, err := c.Record(context.Background(), tt.token, &models.ActivityEvent{
				Action:    models.ActionLogin,
				SessionID: "s-1",
				Timestamp: time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC),
			})
			if err != nil {
				t.Fatalf("Record() error = %v", err)
			}
			if id != tt.wantID {
				t.Errorf("Record() id = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestClient_RecordNonSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "database down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Record(context.Background(), "", &models.ActivityEvent{Action: models.ActionPageView})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Fatalf("error = %v, want 500 StatusError", err)
	}
	if !errors.Is(err, ErrNonSuccess) {
		t.Error("StatusError should wrap ErrNonSuccess")
	}
	if se.Body != "database down" {
		t.Errorf("Body = %q", se.Body)
	}
}

func TestClient_List(t *testing.T) {
	t.Parallel()

	events := `[{"action":"login","userId":"u1","timestamp":"2026-02-03T09:00:00Z","sessionId":"s1"},
	            {"action":"logout","userId":"u1","timestamp":"2026-02-03T10:00:00Z","sessionId":"s1"}]`

	tests := []struct {
		name string
		body string
	}{
		{"bare array", events},
		{"data envelope", `{"success":true,"data":` + events + `}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if r.URL.Path != "/activities" || q.Get("limit") != "1000" || q.Get("time_filter") != "today" || q.Get("action") != "login" {
					t.Errorf("unexpected request %s", r.URL.String())
				}
				if r.Header.Get("Authorization") != "Bearer service-token" {
					t.Error("service token not sent")
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := newTestClient(srv.URL).List(context.Background(), ListQuery{Limit: 1000, TimeFilter: "today", Action: models.ActionLogin})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != 2 || got[1].Action != models.ActionLogout {
				t.Errorf("List() = %+v", got)
			}
		})
	}
}

func TestClient_Stats(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/activities/stats" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":{"total":120,"today":14,"active_users":6,"success_rate":97.5,"failed_logins":3}}`))
	}))
	defer srv.Close()

	stats, err := newTestClient(srv.URL).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := models.ExternalStats{Total: 120, Today: 14, ActiveUsers: 6, SuccessRate: 97.5, FailedLogins: 3}
	if *stats != want {
		t.Errorf("Stats() = %+v, want %+v", *stats, want)
	}
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 3; i++ {
		_, _ = c.List(context.Background(), ListQuery{})
	}
	if c.BreakerState() != "open" {
		t.Fatalf("BreakerState() = %s, want open", c.BreakerState())
	}

	_, err := c.List(context.Background(), ListQuery{})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("server hit %d times, want 3", n)
	}
}

func TestClient_ClientErrorsKeepBreakerClosed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 5; i++ {
		if _, err := c.Record(context.Background(), "expired", &models.ActivityEvent{}); !errors.Is(err, ErrNonSuccess) {
			t.Fatalf("Record() error = %v, want ErrNonSuccess", err)
		}
	}
	if c.BreakerState() != "closed" {
		t.Errorf("BreakerState() = %s, want closed", c.BreakerState())
	}
}
