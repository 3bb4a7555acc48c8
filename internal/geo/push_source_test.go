// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package geo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPushSource_PushWithoutListenerIsDropped(t *testing.T) {
	t.Parallel()

	src := NewPushSource()
	if n := src.Push(Reading{Accuracy: 1}); n != 0 {
		t.Errorf("Push() delivered to %d listeners, want 0", n)
	}
}

func TestPushSource_CurrentReceivesFailure(t *testing.T) {
	t.Parallel()

	src := NewPushSource()
	errc := make(chan error, 1)
	go func() {
		_, err := src.Current(context.Background(), Options{Timeout: 2 * time.Second})
		errc <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := src.AwaitListener(ctx); err != nil {
		t.Fatalf("AwaitListener() error = %v", err)
	}
	src.Fail(ReasonUnavailable)

	err := <-errc
	var pe *PositionError
	if !errors.As(err, &pe) || pe.Reason != ReasonUnavailable {
		t.Errorf("Current() error = %v, want unavailable", err)
	}
}

func TestPushSource_WatchTimeoutKeepsRunning(t *testing.T) {
	t.Parallel()

	src := NewPushSource()
	ctx, cancel := context.WithCancel(context.Background())
	updates, err := src.Watch(ctx, Options{Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	u := <-updates
	if pe := Classify(u.Err); pe == nil || pe.Reason != ReasonTimeout {
		t.Fatalf("first update = %+v, want timeout", u)
	}

	src.Push(Reading{Accuracy: 7})
	for u = range updates {
		if u.Err == nil {
			break
		}
	}
	if u.Reading.Accuracy != 7 {
		t.Errorf("reading accuracy = %v, want 7", u.Reading.Accuracy)
	}
	if u.Reading.Timestamp.IsZero() {
		t.Error("pushed reading should be timestamped")
	}

	cancel()
	for range updates {
	}
	if src.Listeners() != 0 {
		t.Errorf("Listeners() = %d after cancel, want 0", src.Listeners())
	}
}
