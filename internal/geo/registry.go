// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package geo

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/fieldpulse/internal/logging"
	"github.com/tomtom215/fieldpulse/internal/metrics"
)

// listenerWait bounds how long a report waits for the tracker to start listening.
const listenerWait = time.Second

// Status is the externally visible view of one session's tracker.
type Status struct {
	SessionID string   `json:"session_id"`
	State     State    `json:"state"`
	Position  *Reading `json:"position,omitempty"`
	Watching  bool     `json:"watching"`
	Reason    Reason   `json:"reason,omitempty"`
	Message   string   `json:"message,omitempty"`
}

type entry struct {
	tracker  *Tracker
	source   *PushSource
	lastSeen time.Time

	reqMu    sync.Mutex
	inflight chan error
}

// Registry owns one tracker per session, each fed by a PushSource.
// Trackers not reported to within the idle TTL are stopped and removed.
type Registry struct {
	cfg           TrackerConfig
	idleTTL       time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg TrackerConfig, idleTTL, sweepInterval time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &Registry{
		cfg:           cfg,
		idleTTL:       idleTTL,
		sweepInterval: sweepInterval,
		now:           time.Now,
		entries:       make(map[string]*entry),
	}
}

func (r *Registry) touch(sessionID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sessionID]
	if !ok {
		src := NewPushSource()
		e = &entry{tracker: NewTracker(src, r.cfg), source: src}
		r.entries[sessionID] = e
		metrics.GeoTrackersActive.Set(float64(len(r.entries)))
	}
	e.lastSeen = r.now()
	return e
}

func (r *Registry) get(sessionID string) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sessionID]
	return e, ok
}

// ensureRequest starts a one-shot request when the tracker is idle or
// failed. The returned channel yields its outcome; it is nil when the
// tracker was already requesting or running a watch.
func (r *Registry) ensureRequest(e *entry) <-chan error {
	e.reqMu.Lock()
	defer e.reqMu.Unlock()
	if e.inflight != nil {
		return nil
	}
	switch e.tracker.State() {
	case StateRequesting, StateLocating:
		return nil
	case StateFound:
		if e.tracker.Watching() {
			return nil
		}
	}
	done := make(chan error, 1)
	e.inflight = done
	go func() {
		_, err := e.tracker.RequestOnce(context.Background())
		e.reqMu.Lock()
		e.inflight = nil
		e.reqMu.Unlock()
		done <- err
	}()
	return done
}

func (r *Registry) deliver(ctx context.Context, sessionID string, push func(*PushSource) int) (Status, error) {
	e := r.touch(sessionID)
	done := r.ensureRequest(e)

	waitCtx, cancel := context.WithTimeout(ctx, listenerWait)
	defer cancel()
	if err := e.source.AwaitListener(waitCtx); err != nil {
		return r.status(sessionID, e), err
	}
	push(e.source)

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return r.status(sessionID, e), ctx.Err()
		}
	}
	return r.status(sessionID, e), nil
}

// Report feeds a reading reported for sessionID. The first report after
// idle or error starts a request; later ones reach the running watch.
func (r *Registry) Report(ctx context.Context, sessionID string, reading Reading) (Status, error) {
	return r.deliver(ctx, sessionID, func(s *PushSource) int { return s.Push(reading) })
}

// ReportError feeds a failure reported for sessionID.
func (r *Registry) ReportError(ctx context.Context, sessionID string, reason Reason) (Status, error) {
	return r.deliver(ctx, sessionID, func(s *PushSource) int { return s.Fail(reason) })
}

func (r *Registry) status(sessionID string, e *entry) Status {
	st := Status{
		SessionID: sessionID,
		State:     e.tracker.State(),
		Watching:  e.tracker.Watching(),
	}
	if reading, ok := e.tracker.Best(); ok {
		st.Position = &reading
	}
	if st.State == StateError {
		if pe := e.tracker.Err(); pe != nil {
			st.Reason = pe.Reason
			st.Message = pe.Reason.Message()
		}
	}
	return st
}

// Status returns the tracker view for sessionID.
func (r *Registry) Status(sessionID string) (Status, bool) {
	e, ok := r.get(sessionID)
	if !ok {
		return Status{SessionID: sessionID, State: StateIdle}, false
	}
	return r.status(sessionID, e), true
}

// Best returns the retained fix for sessionID while its tracker is in found.
func (r *Registry) Best(sessionID string) (Reading, bool) {
	e, ok := r.get(sessionID)
	if !ok {
		return Reading{}, false
	}
	return e.tracker.Found()
}

// Remove stops and forgets the tracker for sessionID.
func (r *Registry) Remove(sessionID string) bool {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	delete(r.entries, sessionID)
	metrics.GeoTrackersActive.Set(float64(len(r.entries)))
	r.mu.Unlock()

	if ok {
		e.tracker.Stop()
	}
	return ok
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes trackers idle since before now minus the idle TTL.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	var stale []*entry
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e)
			delete(r.entries, id)
		}
	}
	metrics.GeoTrackersActive.Set(float64(len(r.entries)))
	r.mu.Unlock()

	for _, e := range stale {
		e.tracker.Stop()
	}
	return len(stale)
}

// StopAll stops and removes every tracker.
func (r *Registry) StopAll() {
	r.mu.Lock()
	all := r.entries
	r.entries = make(map[string]*entry)
	metrics.GeoTrackersActive.Set(0)
	r.mu.Unlock()

	for _, e := range all {
		e.tracker.Stop()
	}
}

// Serve sweeps idle trackers until ctx is canceled. It satisfies suture.Service.
func (r *Registry) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()
	defer r.StopAll()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				logging.Debug().Int("evicted", n).Msg("evicted idle position trackers")
			}
		}
	}
}
