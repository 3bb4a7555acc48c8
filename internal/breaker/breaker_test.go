// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package breaker

import (
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestBreaker_OpensAfterFailures(t *testing.T) {
	t.Parallel()

	b := New[int]("test-open", Settings{MinRequests: 3, FailureRatio: 0.5, OpenTimeout: time.Hour})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		if _, err := b.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d error = %v, want boom", i, err)
		}
	}
	if got := b.State(); got != "open" {
		t.Fatalf("State() = %s, want open", got)
	}

	called := false
	_, err := b.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	if !IsRejected(err) {
		t.Errorf("error = %v, want rejection", err)
	}
	if called {
		t.Error("fn ran while breaker open")
	}
}

func TestBreaker_SuccessPassesThrough(t *testing.T) {
	t.Parallel()

	b := New[string]("test-success", Settings{})
	got, err := b.Execute(func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Errorf("Execute() = %q, %v; want ok, nil", got, err)
	}
	if b.State() != "closed" {
		t.Errorf("State() = %s, want closed", b.State())
	}
	if b.Name() != "test-success" {
		t.Errorf("Name() = %s", b.Name())
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := map[gobreaker.State]string{
		gobreaker.StateClosed:   "closed",
		gobreaker.StateHalfOpen: "half-open",
		gobreaker.StateOpen:     "open",
		gobreaker.State(42):     "unknown",
	}
	for state, want := range tests {
		if got := StateString(state); got != want {
			t.Errorf("StateString(%d) = %s, want %s", state, got, want)
		}
	}
}
