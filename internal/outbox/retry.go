// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package outbox

import (
	"context"
	"time"

	"github.com/tomtom215/fieldpulse/internal/config"
	"github.com/tomtom215/fieldpulse/internal/logging"
	"github.com/tomtom215/fieldpulse/internal/metrics"
	"github.com/tomtom215/fieldpulse/internal/models"
)

// Sender re-transmits a buffered event.
type Sender interface {
	Record(ctx context.Context, token string, ev *models.ActivityEvent) (string, error)
}

// DeliveryHook is called with each event delivered from the outbox.
type DeliveryHook func(ctx context.Context, ev *models.ActivityEvent)

// Retry results, used as metric labels.
const (
	resultDelivered = "delivered"
	resultFailed    = "failed"
	resultDropped   = "dropped"
)

// gcEvery runs value log GC once per this many ticks.
const gcEvery = 20

// Retrier re-sends buffered events.
type Retrier struct {
	box       *Outbox
	sender    Sender
	cfg       config.OutboxConfig
	onDeliver DeliveryHook
	now       func() time.Time
}

// NewRetrier creates a retry loop over box. onDeliver may be nil.
func NewRetrier(box *Outbox, sender Sender, cfg config.OutboxConfig, onDeliver DeliveryHook) *Retrier {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 30 * time.Second
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 10
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 5 * time.Second
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = cfg.BackoffBase
	}
	return &Retrier{
		box:       box,
		sender:    sender,
		cfg:       cfg,
		onDeliver: onDeliver,
		now:       time.Now,
	}
}

// Backoff returns the delay after the given number of failed attempts:
// base × 2^attempts, capped at ceiling.
func Backoff(base, ceiling time.Duration, attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	d := base
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= ceiling || d <= 0 {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

// FlushResult counts the outcome of one pass.
type FlushResult struct {
	Delivered int
	Failed    int
	Dropped   int
	Skipped   int
}

// Flush re-sends every due entry once.
func (r *Retrier) Flush(ctx context.Context) (FlushResult, error) {
	var res FlushResult

	entries, err := r.box.Pending(ctx, r.cfg.BatchSize)
	if err != nil {
		return res, err
	}

	now := r.now()
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if entry.NextAttemptAt.After(now) {
			res.Skipped++
			continue
		}
		switch r.process(ctx, entry) {
		case resultDelivered:
			res.Delivered++
		case resultFailed:
			res.Failed++
		case resultDropped:
			res.Dropped++
		}
	}

	if res.Delivered > 0 || res.Failed > 0 || res.Dropped > 0 {
		logging.Info().
			Int("delivered", res.Delivered).
			Int("failed", res.Failed).
			Int("dropped", res.Dropped).
			Int("waiting", res.Skipped).
			Msg("Outbox retry pass complete")
	}
	return res, nil
}

func (r *Retrier) process(ctx context.Context, entry *Entry) string {
	ev := entry.Event
	id, err := r.sender.Record(ctx, entry.Token, &ev)
	if err == nil {
		if delErr := r.box.Delete(entry.ID); delErr != nil {
			logging.Warn().Err(delErr).Str("event_id", entry.ID).Msg("Outbox failed to delete delivered entry")
		}
		ev.ID = id
		metrics.RecordOutboxRetry(resultDelivered)
		metrics.RecordEventOutcome(string(ev.Action), "")
		if r.onDeliver != nil {
			r.onDeliver(ctx, &ev)
		}
		return resultDelivered
	}

	attempts := entry.Attempts + 1
	if attempts >= r.cfg.MaxRetries {
		if delErr := r.box.Delete(entry.ID); delErr != nil {
			logging.Warn().Err(delErr).Str("event_id", entry.ID).Msg("Outbox failed to delete dropped entry")
		}
		logging.Warn().Err(err).
			Str("event_id", entry.ID).
			Str("action", string(ev.Action)).
			Int("attempts", attempts).
			Msg("Outbox dropped event after max retries")
		metrics.RecordOutboxRetry(resultDropped)
		return resultDropped
	}

	next := r.now().Add(Backoff(r.cfg.BackoffBase, r.cfg.BackoffMax, attempts))
	if upErr := r.box.UpdateAttempt(entry.ID, err.Error(), next); upErr != nil {
		logging.Warn().Err(upErr).Str("event_id", entry.ID).Msg("Outbox failed to update attempt")
	}
	metrics.RecordOutboxRetry(resultFailed)
	return resultFailed
}

// Serve runs the retry loop until ctx is canceled. It implements
// suture.Service.
func (r *Retrier) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", r.cfg.RetryInterval).
		Int("max_retries", r.cfg.MaxRetries).
		Msg("Outbox retry loop started")

	ticker := time.NewTicker(r.cfg.RetryInterval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Outbox retry loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				logging.Error().Err(err).Msg("Outbox retry pass failed")
			}
			ticks++
			if ticks%gcEvery == 0 {
				r.box.collectGarbage()
			}
		}
	}
}

// String names the service in supervisor logs.
func (r *Retrier) String() string { return "outbox-retrier" }
