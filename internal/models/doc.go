// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

/*
Package models defines the data contracts shared by the activity pipeline.

Key types:

  - ActivityEvent: one immutable, timestamped record of a user action
    together with the device, network and position context attached at
    creation time. Events are append-only; derived views (classifier
    judgements, histogram buckets) are always recomputed from them.
  - DeviceInfo and Location: enrichment records produced by the profiler,
    the geolocation tracker and the network identity resolver.
  - AnalyticsSnapshot: the point-in-time summary aggregated from a window
    of events, consumed by the monitoring dashboard.
  - ExternalStats: the pre-aggregated summary served by the collection
    backend at /activities/stats.
  - APIResponse: the envelope used by every HTTP handler.

JSON field names follow the collection backend: camelCase for events and
snapshots, snake_case for the backend stats summary.
*/
package models
