// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Activity Recording Metrics
	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldpulse_events_recorded_total",
			Help: "Total number of activity events accepted by the collector",
		},
		[]string{"action"},
	)

	EventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldpulse_events_failed_total",
			Help: "Total number of activity events that could not be transmitted",
		},
		[]string{"action", "reason"}, // reason: "collector", "breaker_open", "encode"
	)

	EnrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldpulse_enrichment_failures_total",
			Help: "Total number of enrichment steps that fell back to empty values",
		},
		[]string{"source"}, // source: "public_ip", "network_location", "identity"
	)

	// Collector Metrics
	CollectorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldpulse_collector_request_duration_seconds",
			Help:    "Duration of collector API requests in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "outcome"}, // outcome: "success", "error"
	)

	// Resolver Metrics
	ResolverCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldpulse_resolver_cache_hits_total",
			Help: "Total number of network location lookups served from cache",
		},
	)

	ResolverCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldpulse_resolver_cache_misses_total",
			Help: "Total number of network location lookups sent to the provider",
		},
	)

	ResolverCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldpulse_resolver_call_duration_seconds",
			Help:    "Duration of public address and network location calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"call"}, // call: "public_ip", "location"
	)

	// Geo Tracker Metrics
	GeoPositionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldpulse_geo_position_errors_total",
			Help: "Total number of failed position requests by reason",
		},
		[]string{"reason"},
	)

	GeoTrackersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fieldpulse_geo_trackers_active",
			Help: "Current number of session position trackers",
		},
	)

	// Outbox Metrics
	OutboxDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fieldpulse_outbox_pending",
			Help: "Current number of events waiting in the outbox",
		},
	)

	OutboxRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldpulse_outbox_retries_total",
			Help: "Total number of outbox retry attempts",
		},
		[]string{"result"}, // result: "delivered", "failed", "dropped"
	)

	// Analytics Metrics
	SnapshotBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldpulse_snapshot_build_duration_seconds",
			Help:    "Duration of dashboard snapshot builds in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"}, // source: "live", "demo"
	)

	SnapshotEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fieldpulse_snapshot_events",
			Help: "Number of events in the last dashboard snapshot",
		},
	)

	SuspiciousEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldpulse_suspicious_events_total",
			Help: "Total number of recorded events classified as suspicious",
		},
		[]string{"severity"},
	)

	// Event Bus Metrics
	BusMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldpulse_bus_messages_published_total",
			Help: "Total number of messages published to the event bus",
		},
		[]string{"transport", "result"}, // transport: "local", "nats"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCollectorRequest records one collector call.
func RecordCollectorRequest(operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	CollectorRequestDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// RecordEventOutcome counts a recording attempt for action. An empty
// failure reason means the event was accepted.
func RecordEventOutcome(action, failureReason string) {
	if action == "" {
		action = "unknown"
	}
	if failureReason == "" {
		EventsRecorded.WithLabelValues(action).Inc()
		return
	}
	EventsFailed.WithLabelValues(action, normalizeLabel(failureReason)).Inc()
}

// RecordSnapshot records a snapshot build.
func RecordSnapshot(source string, events int, duration time.Duration) {
	SnapshotBuildDuration.WithLabelValues(source).Observe(duration.Seconds())
	SnapshotEvents.Set(float64(events))
}

// RecordBusPublish counts a publish on transport.
func RecordBusPublish(transport string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	BusMessagesPublished.WithLabelValues(transport, result).Inc()
}

// RecordOutboxRetry counts an outbox retry result.
func RecordOutboxRetry(result string) {
	OutboxRetries.WithLabelValues(result).Inc()
}

// RecordBreakerTransition records a circuit breaker state change.
func RecordBreakerTransition(name, from, to string, stateValue float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(stateValue)
}

// normalizeLabel keeps label cardinality bounded.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) > 32 {
		s = s[:32]
	}
	return s
}
