// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

/*
Package metrics provides Prometheus instrumentation for FieldPulse.

All collectors are registered on the default registry through promauto and
exposed by the API server at /metrics.

Metric families:

  - fieldpulse_events_*: recording outcomes by action
  - fieldpulse_enrichment_failures_total: enrichment steps that fell back
  - fieldpulse_collector_*: collector latency by operation and outcome
  - fieldpulse_resolver_*: public address and network location lookups
  - fieldpulse_geo_*: position tracker errors and live trackers
  - fieldpulse_outbox_*: buffered transmissions and retries
  - fieldpulse_snapshot_*: dashboard snapshot builds
  - fieldpulse_suspicious_events_total: classifier results by severity
  - api_*, websocket_*, circuit_breaker_*: transport and resilience

Example:

	start := time.Now()
	err := client.Record(ctx, event)
	metrics.RecordCollectorRequest("record", time.Since(start), err)
*/
package metrics
