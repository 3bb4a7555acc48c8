// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	a, b := GenerateCorrelationID(), GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("expected 8-character id, got %q", a)
	}
	if a == b {
		t.Error("expected unique ids")
	}
}

func TestContextIDs_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" || SessionIDFromContext(ctx) != "" {
		t.Fatal("expected empty ids on a bare context")
	}

	ctx = ContextWithCorrelationID(ctx, "corr1234")
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithSessionID(ctx, "sess-1")

	if got := CorrelationIDFromContext(ctx); got != "corr1234" {
		t.Errorf("correlation id = %q", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("request id = %q", got)
	}
	if got := SessionIDFromContext(ctx); got != "sess-1" {
		t.Errorf("session id = %q", got)
	}
}

func TestCtx_AddsContextFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "req-42")
	ctx = ContextWithSessionID(ctx, "sess-42")

	Ctx(ctx).Info().Msg("with ids")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-42"`) {
		t.Errorf("missing request_id: %s", out)
	}
	if !strings.Contains(out, `"session_id":"sess-42"`) {
		t.Errorf("missing session_id: %s", out)
	}
	if strings.Contains(out, "correlation_id") {
		t.Errorf("unexpected correlation_id: %s", out)
	}
}

func TestLoggerFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	//nolint:staticcheck // nil context is handled explicitly
	l := LoggerFromContext(nil)
	if l.GetLevel() != Logger().GetLevel() {
		t.Error("expected global logger for nil context")
	}
}
