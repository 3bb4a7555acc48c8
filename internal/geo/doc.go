// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

/*
Package geo tracks the live position of a field session.

A Tracker moves through idle → requesting → locating → found | error.
RequestOnce asks its PositionSource for a single high-accuracy, uncached
fix bounded by the position timeout (15s by default). On success the
tracker enters found and starts a continuous watch (30s per-reading
timeout). A watch reading replaces the retained one only when its
accuracy radius is strictly smaller, so a degraded reading never
overwrites a good fix.

Errors carry a Reason (permission_denied, unavailable, timeout, unknown)
with a user-facing message. The tracker never retries on its own; a new
RequestOnce call is required.

Stop cancels the watch and is safe to call at any time and more than
once. Owners must call it when the session is torn down; the Registry
does so on removal, idle eviction and shutdown.

PushSource adapts positions reported by the browser (POSTed to the
gateway) into a PositionSource, and Registry keeps one tracker and source
per session id.
*/
package geo
