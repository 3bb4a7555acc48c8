// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package api

import (
	"net/http"

	ws "github.com/tomtom215/fieldpulse/internal/websocket"
)

// WebSocket upgrades the connection and subscribes it to the live feed.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		unavailable(w, r, "Live feed")
		return
	}
	ws.ServeWS(h.hub, h.upgrader, w, r)
}
