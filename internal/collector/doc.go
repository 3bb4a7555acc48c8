// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package collector is the HTTP client for the activity collection backend.
//
// Endpoints:
//
//	POST {base}/activities/record            record one event
//	GET  {base}/activities?limit&time_filter&action
//	GET  {base}/activities/stats
//
// Responses may be bare JSON or wrapped in a {"data": ...} envelope.
// Any non-2xx status is a *StatusError wrapping ErrNonSuccess. Calls pass
// through a circuit breaker; while it is open they fail fast. Client
// errors (4xx) do not count toward opening it.
package collector
