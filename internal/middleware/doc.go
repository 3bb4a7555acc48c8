// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package middleware provides the HTTP middleware shared by the gateway
// routes: request ids, activity session propagation, access logging and
// Prometheus request metrics.
//
// All middleware has the func(http.Handler) http.Handler shape used by
// chi. Response writers are wrapped with chi's WrapResponseWriter so
// WebSocket upgrades can still hijack the connection.
package middleware
