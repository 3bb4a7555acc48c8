// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package api

import (
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/fieldpulse/internal/auth"
	"github.com/tomtom215/fieldpulse/internal/models"
	"github.com/tomtom215/fieldpulse/internal/netid"
	"github.com/tomtom215/fieldpulse/internal/session"
)

const trackBody = `{
	"action": "visit_create",
	"description": "Visited Nile Clinic",
	"details": {"clinic_name": "Nile Clinic"},
	"client": {"screenWidth": 390, "screenHeight": 844, "timezone": "Africa/Cairo", "connection": "4g"}
}`

const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

func TestTrack_AsyncAccepted(t *testing.T) {
	t.Parallel()

	// httptest requests arrive from 192.0.2.1.
	proxies, err := netid.NewTrustedProxies([]string{"192.0.2.1"})
	if err != nil {
		t.Fatal(err)
	}
	rec := newFakeRecorder(nil)
	h := newTestRouter(t, Dependencies{Recorder: rec, Proxies: proxies}, nil)

	resp, env := do(t, h, http.MethodPost, "/api/v1/track", trackBody, http.Header{
		session.Header:    {"sess-7"},
		"User-Agent":      {iphoneUA},
		"X-Forwarded-For": {"41.33.10.20"},
	})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (%s)", resp.Code, resp.Body.String())
	}

	var accepted TrackAccepted
	if err := json.Unmarshal(env.Data, &accepted); err != nil {
		t.Fatal(err)
	}
	if !accepted.Accepted || accepted.SessionID != "sess-7" {
		t.Errorf("data = %+v, want accepted for sess-7", accepted)
	}

	waitSignal(t, rec.done)
	call := rec.lastCall(t)
	if !call.async {
		t.Error("expected RecordAsync")
	}
	if call.sessionID != "sess-7" {
		t.Errorf("session = %q, want sess-7", call.sessionID)
	}
	p := call.partial
	if p.Action != models.ActionVisitCreate || p.Description != "Visited Nile Clinic" {
		t.Errorf("partial = %+v", p)
	}
	if p.ClientAddress != "41.33.10.20" {
		t.Errorf("client address = %q", p.ClientAddress)
	}
	if p.Capabilities == nil || p.Capabilities.UserAgent != iphoneUA || p.Capabilities.ScreenWidth != 390 {
		t.Fatalf("capabilities = %+v", p.Capabilities)
	}
	if p.Capabilities.Connection == nil || *p.Capabilities.Connection != "4g" {
		t.Errorf("connection = %v, want 4g", p.Capabilities.Connection)
	}
	if p.Details["clinic_name"] != "Nile Clinic" {
		t.Errorf("details = %v", p.Details)
	}
}

func TestTrack_ForwardedHeaderFromUntrustedPeer(t *testing.T) {
	t.Parallel()

	rec := newFakeRecorder(nil)
	h := newTestRouter(t, Dependencies{Recorder: rec}, nil)

	resp, _ := do(t, h, http.MethodPost, "/api/v1/track", trackBody, http.Header{
		"X-Forwarded-For": {"41.33.10.20"},
		"X-Real-IP":       {"41.33.10.21"},
	})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (%s)", resp.Code, resp.Body.String())
	}

	waitSignal(t, rec.done)
	if got := rec.lastCall(t).partial.ClientAddress; got != "192.0.2.1" {
		t.Errorf("client address = %q, want the peer 192.0.2.1", got)
	}
}

func TestTrack_Wait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		result       *models.ActivityEvent
		wantRecorded bool
		wantNullData bool
	}{
		{
			name:         "recorded",
			result:       &models.ActivityEvent{ID: "evt-1", EventID: "e-1", Action: models.ActionLogin},
			wantRecorded: true,
		},
		{name: "not recorded", result: nil, wantNullData: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := newFakeRecorder(tt.result)
			h := newTestRouter(t, Dependencies{Recorder: rec}, nil)

			resp, env := do(t, h, http.MethodPost, "/api/v1/track?wait=true", `{"action":"login","description":"Signed in"}`, nil)
			if resp.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.Code)
			}
			if env.Metadata.Recorded == nil || *env.Metadata.Recorded != tt.wantRecorded {
				t.Errorf("metadata.recorded = %v, want %v", env.Metadata.Recorded, tt.wantRecorded)
			}
			if tt.wantNullData {
				if string(env.Data) != "null" {
					t.Errorf("data = %s, want null", env.Data)
				}
				return
			}
			var ev models.ActivityEvent
			if err := json.Unmarshal(env.Data, &ev); err != nil {
				t.Fatal(err)
			}
			if ev.ID != "evt-1" {
				t.Errorf("event id = %q, want evt-1", ev.ID)
			}
			if rec.lastCall(t).async {
				t.Error("wait=true must record synchronously")
			}
		})
	}
}

func TestTrack_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		target   string
		body     string
		wantCode string
	}{
		{name: "unknown action", target: "/api/v1/track", body: `{"action":"teleport"}`, wantCode: "VALIDATION_ERROR"},
		{name: "missing action", target: "/api/v1/track", body: `{"description":"x"}`, wantCode: "VALIDATION_ERROR"},
		{name: "negative screen", target: "/api/v1/track", body: `{"action":"login","client":{"screenWidth":-1}}`, wantCode: "VALIDATION_ERROR"},
		{name: "malformed json", target: "/api/v1/track", body: `{"action":`, wantCode: CodeBadRequest},
		{name: "bad wait flag", target: "/api/v1/track?wait=maybe", body: `{"action":"login"}`, wantCode: CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := newFakeRecorder(nil)
			h := newTestRouter(t, Dependencies{Recorder: rec}, nil)

			resp, env := do(t, h, http.MethodPost, tt.target, tt.body, nil)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.Code)
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
			rec.mu.Lock()
			defer rec.mu.Unlock()
			if len(rec.calls) != 0 {
				t.Error("recorder must not be called for a rejected request")
			}
		})
	}
}

func TestTrack_Unavailable(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, Dependencies{}, nil)
	resp, env := do(t, h, http.MethodPost, "/api/v1/track", `{"action":"login"}`, nil)
	if resp.Code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != CodeUnavailable {
		t.Errorf("status = %d error = %+v, want 503", resp.Code, env.Error)
	}
}

func TestTrack_BearerCredentialReachesRecorder(t *testing.T) {
	t.Parallel()

	parser, err := auth.NewParser("")
	if err != nil {
		t.Fatal(err)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		UserID:           "u-9",
		Name:             "Dr. Sara",
		Role:             "rep",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-9"},
	}).SignedString([]byte("any-signing-key-since-unverified"))
	if err != nil {
		t.Fatal(err)
	}

	rec := newFakeRecorder(&models.ActivityEvent{ID: "evt-2"})
	h := newTestRouter(t, Dependencies{Recorder: rec}, auth.NewMiddleware(parser))

	resp, _ := do(t, h, http.MethodPost, "/api/v1/track?wait=1", `{"action":"logout"}`, http.Header{
		"Authorization": {"Bearer " + token},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}

	cred := rec.lastCall(t).cred
	if cred.Token != token {
		t.Error("bearer token was not forwarded")
	}
	if cred.Identity.UserID != "u-9" || cred.Identity.UserName != "Dr. Sara" || cred.Identity.UserRole != "rep" {
		t.Errorf("identity = %+v", cred.Identity)
	}
}
