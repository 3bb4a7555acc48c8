// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/fieldpulse/internal/geo"
	"github.com/tomtom215/fieldpulse/internal/models"
)

const maxSessionIDLength = 128

func pathSessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "sessionID")
	if id == "" || len(id) > maxSessionIDLength {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, "Invalid session id", nil)
		return "", false
	}
	return id, true
}

// ReportPosition feeds a position fix or a failure into the session's
// tracker and returns the tracker state after it was applied.
func (h *Handler) ReportPosition(w http.ResponseWriter, r *http.Request) {
	if h.positions == nil {
		unavailable(w, r, "Position tracking")
		return
	}
	id, ok := pathSessionID(w, r)
	if !ok {
		return
	}

	var req PositionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var (
		status geo.Status
		err    error
	)
	if req.Error != "" {
		status, err = h.positions.ReportError(r.Context(), id, geo.ParseReason(req.Error))
	} else {
		status, err = h.positions.Report(r.Context(), id, geo.Reading{
			Lat:      *req.Lat,
			Lng:      *req.Lng,
			Accuracy: req.Accuracy,
		})
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "Position could not be delivered to the tracker", err)
		return
	}

	respondData(w, http.StatusOK, status, models.Metadata{})
}

// GetPosition returns the tracker state of a session. Unknown sessions are
// reported as idle.
func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	if h.positions == nil {
		unavailable(w, r, "Position tracking")
		return
	}
	id, ok := pathSessionID(w, r)
	if !ok {
		return
	}

	status, _ := h.positions.Status(id)
	respondData(w, http.StatusOK, status, models.Metadata{})
}

// EndSession stops and forgets the tracker of a session.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if h.positions == nil {
		unavailable(w, r, "Position tracking")
		return
	}
	id, ok := pathSessionID(w, r)
	if !ok {
		return
	}

	if !h.positions.Remove(id) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Session has no tracker", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
