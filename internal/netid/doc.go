// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package netid resolves a public network address and maps it to an
// approximate place (city, region, country, ISP).
//
// Results are a fallback for events recorded without a live position fix.
// Every call is best effort: there is no retry, and any failure is returned
// as a *Error that the caller treats as "no fallback available".
// Location lookups are cached per address, rate limited to the provider's
// free tier and guarded by a circuit breaker.
package netid
