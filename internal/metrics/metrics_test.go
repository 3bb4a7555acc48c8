// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordEventOutcome(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		reason  string
		counter func() prometheus.Counter
	}{
		{
			name:    "accepted event",
			action:  "login",
			counter: func() prometheus.Counter { return EventsRecorded.WithLabelValues("login") },
		},
		{
			name:    "empty action becomes unknown",
			action:  "",
			counter: func() prometheus.Counter { return EventsRecorded.WithLabelValues("unknown") },
		},
		{
			name:    "failure reason is normalized",
			action:  "visit_create",
			reason:  "  Collector ",
			counter: func() prometheus.Counter { return EventsFailed.WithLabelValues("visit_create", "collector") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(tt.counter())
			RecordEventOutcome(tt.action, tt.reason)
			if got := testutil.ToFloat64(tt.counter()) - before; got != 1 {
				t.Errorf("counter delta = %v, want 1", got)
			}
		})
	}
}

func TestRecordCollectorRequest(t *testing.T) {
	RecordCollectorRequest("list", 20*time.Millisecond, nil)
	RecordCollectorRequest("list", 30*time.Millisecond, errors.New("boom"))

	for _, outcome := range []string{"success", "error"} {
		m := &dto.Metric{}
		obs, ok := CollectorRequestDuration.WithLabelValues("list", outcome).(prometheus.Metric)
		if !ok {
			t.Fatalf("observer for %s is not a metric", outcome)
		}
		if err := obs.Write(m); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if m.GetHistogram().GetSampleCount() == 0 {
			t.Errorf("outcome %s: no samples recorded", outcome)
		}
	}
}

func TestRecordSnapshot(t *testing.T) {
	RecordSnapshot("demo", 42, 5*time.Millisecond)
	if got := testutil.ToFloat64(SnapshotEvents); got != 42 {
		t.Errorf("SnapshotEvents = %v, want 42", got)
	}
}

func TestRecordBusPublish(t *testing.T) {
	ok := BusMessagesPublished.WithLabelValues("local", "success")
	failed := BusMessagesPublished.WithLabelValues("nats", "failure")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordBusPublish("local", nil)
	RecordBusPublish("nats", errors.New("no responders"))

	if got := testutil.ToFloat64(ok) - okBefore; got != 1 {
		t.Errorf("local success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(failed) - failedBefore; got != 1 {
		t.Errorf("nats failure delta = %v, want 1", got)
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("collector-test", "closed", "open", 2)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("collector-test")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("collector-test", "closed", "open")); got != 1 {
		t.Errorf("transitions = %v, want 1", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests) - before; got != 1 {
		t.Errorf("active request delta = %v, want 1", got)
	}
}

func TestNormalizeLabel(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 40)
	tests := []struct {
		in, want string
	}{
		{"Breaker_Open", "breaker_open"},
		{"  encode  ", "encode"},
		{long, long[:32]},
	}
	for _, tt := range tests {
		if got := normalizeLabel(tt.in); got != tt.want {
			t.Errorf("normalizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
