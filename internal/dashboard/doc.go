// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package dashboard keeps the monitoring dashboard snapshot current.
//
// The Refresher pulls the configured event window and the backend summary
// from the collector, aggregates them and caches the result. When the
// event fetch fails it can substitute a fixed demo dataset so the
// dashboard stays usable; such snapshots carry source "demo" and the
// reason in demoReason. A failed summary fetch only omits the stats.
package dashboard
