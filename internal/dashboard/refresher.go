// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/fieldpulse/internal/analytics"
	"github.com/tomtom215/fieldpulse/internal/collector"
	"github.com/tomtom215/fieldpulse/internal/config"
	"github.com/tomtom215/fieldpulse/internal/detection"
	"github.com/tomtom215/fieldpulse/internal/logging"
	"github.com/tomtom215/fieldpulse/internal/metrics"
	"github.com/tomtom215/fieldpulse/internal/models"
)

// Source serves the event window and the backend summary.
type Source interface {
	List(ctx context.Context, q collector.ListQuery) ([]models.ActivityEvent, error)
	Stats(ctx context.Context) (*models.ExternalStats, error)
}

// Broadcaster receives every cached snapshot.
type Broadcaster interface {
	BroadcastSnapshot(snap *models.AnalyticsSnapshot)
}

// Refresher builds and caches dashboard snapshots.
type Refresher struct {
	source       Source
	broadcaster  Broadcaster
	interval     time.Duration
	defaultQuery collector.ListQuery
	displayLimit int
	demoFallback bool
	location     *time.Location
	now          func() time.Time

	mu      sync.RWMutex
	last    *models.AnalyticsSnapshot
	flagged []detection.Flagged
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithBroadcaster pushes cached snapshots to b.
func WithBroadcaster(b Broadcaster) Option { return func(r *Refresher) { r.broadcaster = b } }

// WithClock overrides the snapshot clock.
func WithClock(now func() time.Time) Option { return func(r *Refresher) { r.now = now } }

// NewRefresher creates a refresher. It fails when cfg.Timezone is not a
// known zone.
func NewRefresher(source Source, cfg config.DashboardConfig, opts ...Option) (*Refresher, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load dashboard timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = time.Minute
	}
	r := &Refresher{
		source:   source,
		interval: interval,
		defaultQuery: collector.ListQuery{
			Limit:      cfg.FetchLimit,
			TimeFilter: cfg.TimeFilter,
		},
		displayLimit: cfg.DisplayLimit,
		demoFallback: cfg.DemoFallback,
		location:     loc,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// DefaultQuery is the window pulled by the refresh loop.
func (r *Refresher) DefaultQuery() collector.ListQuery {
	return r.defaultQuery
}

// Refresh pulls and caches the default window, then broadcasts it.
func (r *Refresher) Refresh(ctx context.Context) (*models.AnalyticsSnapshot, error) {
	snap, events, err := r.build(ctx, r.defaultQuery)
	if err != nil {
		return nil, err
	}

	flagged := detection.Suspicious(events)
	r.mu.Lock()
	r.last = snap
	r.flagged = flagged
	r.mu.Unlock()

	if r.broadcaster != nil {
		r.broadcaster.BroadcastSnapshot(snap)
	}
	return snap, nil
}

// Build aggregates an arbitrary window without touching the cache. Zero
// fields of q take the default window's values.
func (r *Refresher) Build(ctx context.Context, q collector.ListQuery) (*models.AnalyticsSnapshot, error) {
	if q.Limit <= 0 {
		q.Limit = r.defaultQuery.Limit
	}
	if q.TimeFilter == "" {
		q.TimeFilter = r.defaultQuery.TimeFilter
	}
	snap, _, err := r.build(ctx, q)
	return snap, err
}

func (r *Refresher) build(ctx context.Context, q collector.ListQuery) (*models.AnalyticsSnapshot, []models.ActivityEvent, error) {
	start := time.Now()

	var (
		wg       sync.WaitGroup
		stats    *models.ExternalStats
		statsErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		stats, statsErr = r.source.Stats(ctx)
	}()
	events, listErr := r.source.List(ctx, q)
	wg.Wait()

	now := r.now()
	source := models.SnapshotSourceLive
	demoReason := ""
	if listErr != nil {
		if !r.demoFallback {
			return nil, nil, fmt.Errorf("fetch activities: %w", listErr)
		}
		logging.Ctx(ctx).Warn().Err(listErr).Msg("activity fetch failed; serving demo dataset")
		events = DemoEvents(now)
		source = models.SnapshotSourceDemo
		demoReason = fmt.Sprintf("activity fetch failed: %v", listErr)
	}
	if statsErr != nil {
		logging.Ctx(ctx).Warn().Err(statsErr).Msg("activity stats fetch failed; stats omitted")
		stats = nil
	}

	snap := analytics.Aggregate(events, stats,
		analytics.WithLimit(r.displayLimit),
		analytics.WithLocation(r.location),
	)
	snap.GeneratedAt = now
	snap.Source = source
	snap.DemoReason = demoReason

	metrics.RecordSnapshot(string(source), len(events), time.Since(start))
	return &snap, events, nil
}

// Snapshot returns the cached snapshot.
func (r *Refresher) Snapshot() (*models.AnalyticsSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.last != nil
}

// Suspicious returns the suspicious events of the cached window.
func (r *Refresher) Suspicious() []detection.Flagged {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]detection.Flagged, len(r.flagged))
	copy(out, r.flagged)
	return out
}

// Serve refreshes immediately and then every interval until ctx is
// canceled. Refresh errors are logged; the previous snapshot stays cached.
// It implements suture.Service.
func (r *Refresher) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", r.interval).Msg("Dashboard refresher started")

	r.refreshLogged(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Dashboard refresher stopped")
			return ctx.Err()
		case <-ticker.C:
			r.refreshLogged(ctx)
		}
	}
}

func (r *Refresher) refreshLogged(ctx context.Context) {
	if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Dashboard refresh failed")
	}
}

func (r *Refresher) String() string { return "dashboard-refresher" }
