// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/fieldpulse/internal/detection"
	"github.com/tomtom215/fieldpulse/internal/models"
	"github.com/tomtom215/fieldpulse/internal/validation"
)

// SuspiciousList is the body of GET /api/v1/analytics/suspicious.
type SuspiciousList struct {
	Count  int                 `json:"count"`
	Events []detection.Flagged `json:"events"`
}

// AnalyticsSnapshot returns the cached snapshot. ?refresh=true pulls a new
// one first; limit, time_filter and action select a custom window that is
// built on demand and not cached.
func (h *Handler) AnalyticsSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		unavailable(w, r, "Analytics")
		return
	}

	q, err := parseSnapshotQuery(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, "Invalid query parameter", err)
		return
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
		return
	}

	start := time.Now()
	if !q.Custom() && !q.Refresh {
		if snap, ok := h.snapshots.Snapshot(); ok {
			respondData(w, http.StatusOK, snap, models.Metadata{Cached: true})
			return
		}
	}

	var snap *models.AnalyticsSnapshot
	if q.Custom() {
		snap, err = h.snapshots.Build(r.Context(), q.ListQuery())
	} else {
		snap, err = h.snapshots.Refresh(r.Context())
	}
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "Analytics are temporarily unavailable", err)
		return
	}

	respondData(w, http.StatusOK, snap, models.Metadata{QueryTimeMS: time.Since(start).Milliseconds()})
}

// AnalyticsSuspicious lists the suspicious events of the cached window with
// their judgement.
func (h *Handler) AnalyticsSuspicious(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		unavailable(w, r, "Analytics")
		return
	}

	flagged := h.snapshots.Suspicious()
	if flagged == nil {
		flagged = []detection.Flagged{}
	}
	respondData(w, http.StatusOK, SuspiciousList{Count: len(flagged), Events: flagged}, models.Metadata{Cached: true})
}
