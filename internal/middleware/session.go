// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package middleware

import (
	"net/http"

	"github.com/tomtom215/fieldpulse/internal/logging"
	"github.com/tomtom215/fieldpulse/internal/session"
)

// Session attaches the activity session named by X-Session-ID, or a new
// one, to the request context and echoes its id in the response so the
// client can keep using it.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromRequest(r)
		w.Header().Set(session.Header, s.ID())

		ctx := session.NewContext(r.Context(), s)
		ctx = logging.ContextWithSessionID(ctx, s.ID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
