// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package middleware

import (
	"net/http"

	"github.com/tomtom215/fieldpulse/internal/netid"
)

// RealIP rewrites RemoteAddr to the originating client address. Forwarding
// headers count only when the direct peer is one of proxies, so rate
// limits, access logs and recorded events see an address the caller cannot
// forge. A nil proxies keeps the peer address.
func RealIP(proxies *netid.TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.RemoteAddr = proxies.ClientAddress(r)
			next.ServeHTTP(w, r)
		})
	}
}
