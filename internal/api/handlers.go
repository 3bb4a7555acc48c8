// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/fieldpulse/internal/collector"
	"github.com/tomtom215/fieldpulse/internal/detection"
	"github.com/tomtom215/fieldpulse/internal/geo"
	"github.com/tomtom215/fieldpulse/internal/logging"
	"github.com/tomtom215/fieldpulse/internal/models"
	"github.com/tomtom215/fieldpulse/internal/netid"
	"github.com/tomtom215/fieldpulse/internal/recorder"
	ws "github.com/tomtom215/fieldpulse/internal/websocket"
)

// ActivityRecorder composes and transmits events.
type ActivityRecorder interface {
	Record(ctx context.Context, p recorder.Partial) *models.ActivityEvent
	RecordAsync(ctx context.Context, p recorder.Partial)
}

// PositionRegistry holds the per-session trackers.
type PositionRegistry interface {
	Report(ctx context.Context, sessionID string, reading geo.Reading) (geo.Status, error)
	ReportError(ctx context.Context, sessionID string, reason geo.Reason) (geo.Status, error)
	Status(sessionID string) (geo.Status, bool)
	Remove(sessionID string) bool
}

// SnapshotService builds and caches analytics snapshots.
type SnapshotService interface {
	Snapshot() (*models.AnalyticsSnapshot, bool)
	Refresh(ctx context.Context) (*models.AnalyticsSnapshot, error)
	Build(ctx context.Context, q collector.ListQuery) (*models.AnalyticsSnapshot, error)
	Suspicious() []detection.Flagged
}

// ReadinessCheck is one dependency probed by /health/ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Dependencies are the collaborators of Handler. Nil collaborators make
// their endpoints answer 503.
type Dependencies struct {
	Recorder    ActivityRecorder
	Positions   PositionRegistry
	Snapshots   SnapshotService
	Hub         *ws.Hub
	CORSOrigins []string
	Checks      []ReadinessCheck
	// Proxies may set X-Forwarded-For; nil trusts none.
	Proxies *netid.TrustedProxies
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_track.go: activity recording
//   - handlers_sessions.go: session position reports
//   - handlers_analytics.go: snapshot and suspicious lists
//   - handlers_health.go: probes
//   - handlers_websocket.go: live feed
type Handler struct {
	recorder  ActivityRecorder
	positions PositionRegistry
	snapshots SnapshotService
	hub       *ws.Hub
	upgrader  *websocket.Upgrader
	checks    []ReadinessCheck
	proxies   *netid.TrustedProxies
	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		recorder:  deps.Recorder,
		positions: deps.Positions,
		snapshots: deps.Snapshots,
		hub:       deps.Hub,
		upgrader:  newUpgrader(deps.CORSOrigins),
		checks:    deps.Checks,
		proxies:   deps.Proxies,
		startTime: time.Now(),
	}
}

func newUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			return checkWebSocketOrigin(r, allowedOrigins)
		},
	}
}

// checkWebSocketOrigin accepts an Origin listed in allowedOrigins, or any
// Origin when the list contains "*". Requests without an Origin header are
// rejected.
func checkWebSocketOrigin(r *http.Request, allowedOrigins []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Ctx(r.Context()).Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Ctx(r.Context()).Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

func unavailable(w http.ResponseWriter, r *http.Request, what string) {
	respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, what+" is not available", nil)
}
