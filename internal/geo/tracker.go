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

// Default timeouts.
const (
	DefaultPositionTimeout = 15 * time.Second
	DefaultWatchTimeout    = 30 * time.Second
)

// TrackerConfig holds tracker timeouts.
type TrackerConfig struct {
	PositionTimeout time.Duration
	WatchTimeout    time.Duration
}

// Tracker retains the best known position of one session.
type Tracker struct {
	src PositionSource
	cfg TrackerConfig

	mu        sync.RWMutex
	state     State
	best      *Reading
	err       *PositionError
	gen       uint64 // bumped by every RequestOnce and Stop
	cancelReq context.CancelFunc
	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// NewTracker creates an idle tracker over src.
func NewTracker(src PositionSource, cfg TrackerConfig) *Tracker {
	if cfg.PositionTimeout <= 0 {
		cfg.PositionTimeout = DefaultPositionTimeout
	}
	if cfg.WatchTimeout <= 0 {
		cfg.WatchTimeout = DefaultWatchTimeout
	}
	return &Tracker{src: src, cfg: cfg, state: StateIdle}
}

// RequestOnce asks for a single fix. On success the tracker enters found,
// retains the reading and starts a continuous watch. On failure it enters
// error; the error is returned as a *PositionError.
func (t *Tracker) RequestOnce(ctx context.Context) (Reading, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.mu.Lock()
	if t.cancelReq != nil {
		t.cancelReq()
	}
	t.gen++
	gen := t.gen
	t.state = StateRequesting
	t.err = nil
	t.cancelReq = cancel
	t.mu.Unlock()

	if pc, ok := t.src.(PermissionChecker); ok {
		if err := pc.RequestPermission(ctx); err != nil {
			return Reading{}, t.fail(gen, err)
		}
	}

	if !t.transition(gen, StateLocating) {
		return Reading{}, ErrStopped
	}

	opts := Options{HighAccuracy: true, Timeout: t.cfg.PositionTimeout, MaximumAge: 0}
	reqCtx, cancelTimeout := context.WithTimeout(ctx, t.cfg.PositionTimeout)
	defer cancelTimeout()

	reading, err := t.src.Current(reqCtx, opts)
	if err != nil {
		return Reading{}, t.fail(gen, err)
	}

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return Reading{}, ErrStopped
	}
	r := reading
	t.best = &r
	t.state = StateFound
	t.cancelReq = nil
	t.mu.Unlock()

	t.startWatch(gen)
	return reading, nil
}

func (t *Tracker) transition(gen uint64, s State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		return false
	}
	t.state = s
	return true
}

func (t *Tracker) fail(gen uint64, err error) error {
	pe := Classify(err)
	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return ErrStopped
	}
	t.state = StateError
	t.err = pe
	t.cancelReq = nil
	t.mu.Unlock()
	metrics.GeoPositionErrors.WithLabelValues(string(pe.Reason)).Inc()
	return pe
}

// startWatch replaces any running watch. The watch lives independently of
// the request context and ends only through Stop or a new request.
func (t *Tracker) startWatch(gen uint64) {
	t.stopCurrentWatch()

	ctx, cancel := context.WithCancel(context.Background())
	updates, err := t.src.Watch(ctx, Options{HighAccuracy: true, Timeout: t.cfg.WatchTimeout, MaximumAge: 0})
	if err != nil {
		cancel()
		logging.Warn().Err(err).Msg("position watch could not be started")
		return
	}

	done := make(chan struct{})
	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		cancel()
		return
	}
	t.stopWatch = cancel
	t.watchDone = done
	t.mu.Unlock()

	go func() {
		defer close(done)
		for u := range updates {
			if u.Err != nil {
				// Watch errors leave the retained fix in place.
				logging.Debug().Err(u.Err).Msg("position watch update failed")
				continue
			}
			t.offer(u.Reading)
		}
	}()
}

// offer retains r only if its accuracy is strictly better than the current
// fix. A fix without accuracy is replaced by the first one that has it.
func (t *Tracker) offer(r Reading) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.best != nil && !(r.rank() < t.best.rank()) {
		return false
	}
	t.best = &r
	return true
}

func (t *Tracker) stopCurrentWatch() {
	t.mu.Lock()
	cancel, done := t.stopWatch, t.watchDone
	t.stopWatch, t.watchDone = nil, nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Stop cancels the watch and abandons any in-flight request. The retained
// fix and state are kept. Stop is idempotent.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.gen++
	if t.state == StateRequesting || t.state == StateLocating {
		t.state = StateIdle
	}
	if t.cancelReq != nil {
		t.cancelReq()
		t.cancelReq = nil
	}
	t.mu.Unlock()
	t.stopCurrentWatch()
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Best returns the retained fix.
func (t *Tracker) Best() (Reading, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.best == nil {
		return Reading{}, false
	}
	return *t.best, true
}

// Found returns the retained fix only while the tracker is in found.
func (t *Tracker) Found() (Reading, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state != StateFound || t.best == nil {
		return Reading{}, false
	}
	return *t.best, true
}

// Err returns the last classified error while in the error state.
func (t *Tracker) Err() *PositionError {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Watching reports whether a watch is running.
func (t *Tracker) Watching() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stopWatch != nil
}
