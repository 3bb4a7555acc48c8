// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/fieldpulse/internal/collector"
	"github.com/tomtom215/fieldpulse/internal/models"
	"github.com/tomtom215/fieldpulse/internal/profiler"
)

// TrackRequest is the body of POST /api/v1/track. Identity fields fall
// back to the bearer token claims when empty.
type TrackRequest struct {
	Action      string         `json:"action" validate:"required,activity_action"`
	Description string         `json:"description" validate:"max=1000"`
	UserID      string         `json:"userId,omitempty" validate:"max=128"`
	UserName    string         `json:"userName,omitempty" validate:"max=256"`
	UserRole    string         `json:"userRole,omitempty" validate:"max=64"`
	Success     *bool          `json:"success,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	Client      profiler.Hints `json:"client"`
}

// TrackAccepted is the 202 body of an asynchronous track request.
type TrackAccepted struct {
	Accepted  bool   `json:"accepted"`
	SessionID string `json:"sessionId"`
}

// PositionRequest is either a fix (lat, lng, accuracy) or a failure
// reason reported by the front end. An omitted accuracy is unknown and
// loses to any later fix that reports one.
type PositionRequest struct {
	Lat      *float64 `json:"lat,omitempty" validate:"required_without=Error,omitempty,latitude"`
	Lng      *float64 `json:"lng,omitempty" validate:"required_without=Error,omitempty,longitude"`
	Accuracy float64  `json:"accuracy" validate:"gte=0"`
	Error    string   `json:"error,omitempty" validate:"omitempty,oneof=permission_denied unavailable timeout unknown"`
}

// SnapshotQuery holds the analytics snapshot query parameters.
type SnapshotQuery struct {
	Refresh    bool   `json:"refresh"`
	Limit      int    `json:"limit" validate:"gte=0,lte=10000"`
	TimeFilter string `json:"time_filter" validate:"time_filter"`
	Action     string `json:"action" validate:"omitempty,activity_action"`
}

// Custom reports whether the query selects a window other than the cached one.
func (q SnapshotQuery) Custom() bool {
	return q.Limit > 0 || q.TimeFilter != "" || q.Action != ""
}

// ListQuery converts q for the collector.
func (q SnapshotQuery) ListQuery() collector.ListQuery {
	return collector.ListQuery{Limit: q.Limit, TimeFilter: q.TimeFilter, Action: models.Action(q.Action)}
}

// parseSnapshotQuery reads the query string. Malformed numbers and
// booleans are reported as errors rather than defaulted.
func parseSnapshotQuery(r *http.Request) (SnapshotQuery, error) {
	values := r.URL.Query()
	q := SnapshotQuery{
		TimeFilter: values.Get("time_filter"),
		Action:     values.Get("action"),
	}

	var err error
	if q.Refresh, err = boolParam(values.Get("refresh")); err != nil {
		return q, err
	}
	if v := values.Get("limit"); v != "" {
		if q.Limit, err = strconv.Atoi(v); err != nil {
			return q, err
		}
	}
	return q, nil
}

func boolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
