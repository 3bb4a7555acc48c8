// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package api exposes the enrichment gateway over HTTP using the chi router.
//
// Endpoints:
//
//	POST   /api/v1/track                           record an activity (202, or 200 with ?wait=true)
//	POST   /api/v1/sessions/{sessionID}/position   report a position fix or failure
//	GET    /api/v1/sessions/{sessionID}/position   tracker state and best fix
//	DELETE /api/v1/sessions/{sessionID}            stop and forget the tracker
//	GET    /api/v1/analytics/snapshot              cached snapshot (?refresh, ?limit, ?time_filter, ?action)
//	GET    /api/v1/analytics/suspicious            flagged events of the last snapshot
//	GET    /api/v1/ws                              live feed (activity, snapshot_update)
//	GET    /health/live, /health/ready             probes
//	GET    /metrics                                Prometheus exposition
//
// Every JSON response uses the models.APIResponse envelope. A failed
// transmission to the collector never turns into a 5xx: the track endpoint
// reports it through metadata.recorded instead.
package api
