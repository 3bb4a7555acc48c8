// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package api

import (
	"net/http"

	"github.com/tomtom215/fieldpulse/internal/models"
	"github.com/tomtom215/fieldpulse/internal/netid"
	"github.com/tomtom215/fieldpulse/internal/profiler"
	"github.com/tomtom215/fieldpulse/internal/recorder"
	"github.com/tomtom215/fieldpulse/internal/session"
)

// Track records one activity.
//
// By default the event is recorded in the background and 202 is returned
// immediately. With ?wait=true the handler waits for the collector and
// returns the recorded event, or null data with metadata.recorded=false
// when it could not be recorded. Transmission failures never produce a
// 5xx: the business action that triggered the call has already happened.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		unavailable(w, r, "Activity recording")
		return
	}

	wait, err := boolParam(r.URL.Query().Get("wait"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, "wait must be a boolean", nil)
		return
	}

	var req TrackRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	caps := profiler.FromRequest(r, req.Client)
	p := recorder.Partial{
		Action:        models.Action(req.Action),
		Description:   req.Description,
		UserID:        req.UserID,
		UserName:      req.UserName,
		UserRole:      req.UserRole,
		Success:       req.Success,
		Details:       req.Details,
		Capabilities:  &caps,
		ClientAddress: netid.NormalizeAddress(r.RemoteAddr),
	}

	if !wait {
		h.recorder.RecordAsync(r.Context(), p)
		respondData(w, http.StatusAccepted, TrackAccepted{Accepted: true, SessionID: sessionID(r)}, models.Metadata{})
		return
	}

	ev := h.recorder.Record(r.Context(), p)
	recorded := ev != nil
	if !recorded {
		respondData(w, http.StatusOK, nil, models.Metadata{Recorded: &recorded})
		return
	}
	respondData(w, http.StatusOK, ev, models.Metadata{Recorded: &recorded})
}

func sessionID(r *http.Request) string {
	if s, ok := session.FromContext(r.Context()); ok {
		return s.ID()
	}
	return ""
}
