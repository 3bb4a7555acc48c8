// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/fieldpulse/internal/collector"
	"github.com/tomtom215/fieldpulse/internal/config"
	"github.com/tomtom215/fieldpulse/internal/models"
)

var testNow = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu       sync.Mutex
	events   []models.ActivityEvent
	listErr  error
	stats    *models.ExternalStats
	statsErr error
	queries  []collector.ListQuery
}

func (f *fakeSource) List(_ context.Context, q collector.ListQuery) ([]models.ActivityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.events, f.listErr
}

func (f *fakeSource) Stats(context.Context) (*models.ExternalStats, error) {
	return f.stats, f.statsErr
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	snaps []*models.AnalyticsSnapshot
}

func (b *recordingBroadcaster) BroadcastSnapshot(s *models.AnalyticsSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snaps = append(b.snaps, s)
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.snaps)
}

func testConfig() config.DashboardConfig {
	return config.DashboardConfig{
		RefreshInterval: 10 * time.Millisecond,
		FetchLimit:      500,
		DisplayLimit:    5,
		TimeFilter:      "today",
		DemoFallback:    true,
		Timezone:        "UTC",
	}
}

func liveEvents() []models.ActivityEvent {
	return []models.ActivityEvent{
		{EventID: "a", Action: models.ActionLogin, UserID: "u1", Timestamp: testNow.Add(-time.Hour),
			Details: map[string]any{"failed_attempts": 4}},
		{EventID: "b", Action: models.ActionPageView, UserID: "u2", Timestamp: testNow.Add(-30 * time.Minute)},
	}
}

func newTestRefresher(t *testing.T, src Source, cfg config.DashboardConfig, opts ...Option) *Refresher {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	r, err := NewRefresher(src, cfg, opts...)
	if err != nil {
		t.Fatalf("NewRefresher: %v", err)
	}
	return r
}

func TestRefresh_Live(t *testing.T) {
	t.Parallel()

	src := &fakeSource{events: liveEvents(), stats: &models.ExternalStats{Total: 90, FailedLogins: 2}}
	bc := &recordingBroadcaster{}
	r := newTestRefresher(t, src, testConfig(), WithBroadcaster(bc))

	if _, ok := r.Snapshot(); ok {
		t.Fatal("snapshot cached before first refresh")
	}
	snap, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap.Source != models.SnapshotSourceLive || snap.DemoReason != "" {
		t.Errorf("source = %q reason = %q", snap.Source, snap.DemoReason)
	}
	if snap.TotalActivities != 2 || snap.SuspiciousActivities != 1 {
		t.Errorf("total = %d suspicious = %d", snap.TotalActivities, snap.SuspiciousActivities)
	}
	if snap.AlertsCount != 3 {
		t.Errorf("alertsCount = %d, want 3", snap.AlertsCount)
	}
	if snap.Stats == nil || snap.Stats.Total != 90 {
		t.Errorf("stats = %+v", snap.Stats)
	}
	if !snap.GeneratedAt.Equal(testNow) {
		t.Errorf("generatedAt = %v", snap.GeneratedAt)
	}
	if src.queries[0].Limit != 500 || src.queries[0].TimeFilter != "today" {
		t.Errorf("query = %+v", src.queries[0])
	}

	cached, ok := r.Snapshot()
	if !ok || cached != snap {
		t.Error("snapshot not cached")
	}
	if bc.count() != 1 {
		t.Errorf("broadcasts = %d, want 1", bc.count())
	}
	flagged := r.Suspicious()
	if len(flagged) != 1 || flagged[0].Event.EventID != "a" {
		t.Errorf("suspicious = %+v", flagged)
	}
}

func TestRefresh_DemoFallback(t *testing.T) {
	t.Parallel()

	src := &fakeSource{listErr: errors.New("connection refused"), stats: &models.ExternalStats{Total: 1}}
	r := newTestRefresher(t, src, testConfig())

	snap, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap.Source != models.SnapshotSourceDemo {
		t.Errorf("source = %q, want demo", snap.Source)
	}
	if !strings.Contains(snap.DemoReason, "connection refused") {
		t.Errorf("demoReason = %q", snap.DemoReason)
	}
	if snap.TotalActivities != len(demoScript) {
		t.Errorf("total = %d, want %d", snap.TotalActivities, len(demoScript))
	}
	if len(snap.RecentActivities) != 5 {
		t.Errorf("recent = %d, want display limit 5", len(snap.RecentActivities))
	}
}

func TestRefresh_NoFallback(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.DemoFallback = false
	r := newTestRefresher(t, &fakeSource{listErr: errors.New("down")}, cfg)

	if _, err := r.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh should fail without demo fallback")
	}
	if _, ok := r.Snapshot(); ok {
		t.Error("failed refresh cached a snapshot")
	}
}

func TestRefresh_StatsFailureOmitsStats(t *testing.T) {
	t.Parallel()

	src := &fakeSource{events: liveEvents(), statsErr: errors.New("timeout")}
	r := newTestRefresher(t, src, testConfig())

	snap, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap.Stats != nil {
		t.Errorf("stats = %+v, want nil", snap.Stats)
	}
	if snap.Source != models.SnapshotSourceLive {
		t.Errorf("source = %q", snap.Source)
	}
	if snap.AlertsCount != 1 {
		t.Errorf("alertsCount = %d, want 1", snap.AlertsCount)
	}
}

func TestBuild_DoesNotCache(t *testing.T) {
	t.Parallel()

	src := &fakeSource{events: liveEvents()}
	r := newTestRefresher(t, src, testConfig())

	snap, err := r.Build(context.Background(), collector.ListQuery{Action: "login"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.TotalActivities != 2 {
		t.Errorf("total = %d", snap.TotalActivities)
	}
	if _, ok := r.Snapshot(); ok {
		t.Error("Build cached a snapshot")
	}
	q := src.queries[0]
	if q.Action != "login" || q.Limit != 500 || q.TimeFilter != "today" {
		t.Errorf("query = %+v", q)
	}
}

func TestNewRefresher_BadTimezone(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Timezone = "Mars/Olympus_Mons"
	if _, err := NewRefresher(&fakeSource{}, cfg); err == nil {
		t.Error("NewRefresher should reject an unknown zone")
	}
}

func TestServe(t *testing.T) {
	t.Parallel()

	bc := &recordingBroadcaster{}
	r := newTestRefresher(t, &fakeSource{events: liveEvents()}, testConfig(), WithBroadcaster(bc))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for bc.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if bc.count() < 2 {
		t.Errorf("broadcasts = %d, want at least 2", bc.count())
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not stop")
	}
}
