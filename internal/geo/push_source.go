// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package geo

import (
	"context"
	"errors"
	"sync"
	"time"
)

const subscriberBuffer = 8

// PushSource is a PositionSource fed by positions reported from outside
// the process (the browser posts readings to the gateway). Readings pushed
// while nobody is listening are dropped, matching a platform source that
// only delivers to active requests and watches.
type PushSource struct {
	mu         sync.Mutex
	subs       map[uint64]chan Update
	nextID     uint64
	subscribed chan struct{} // closed and replaced whenever a subscriber joins
	now        func() time.Time
}

// NewPushSource creates an empty source.
func NewPushSource() *PushSource {
	return &PushSource{
		subs:       make(map[uint64]chan Update),
		subscribed: make(chan struct{}),
		now:        time.Now,
	}
}

func (p *PushSource) subscribe() (uint64, <-chan Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	ch := make(chan Update, subscriberBuffer)
	p.subs[p.nextID] = ch
	close(p.subscribed)
	p.subscribed = make(chan struct{})
	return p.nextID, ch
}

func (p *PushSource) unsubscribe(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, id)
}

func (p *PushSource) broadcast(u Update) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	delivered := 0
	for _, ch := range p.subs {
		select {
		case ch <- u:
			delivered++
		default:
		}
	}
	return delivered
}

// Push delivers a reading to every active request and watch. It returns
// the number of listeners reached. A zero timestamp is set to now.
func (p *PushSource) Push(r Reading) int {
	if r.Timestamp.IsZero() {
		r.Timestamp = p.now()
	}
	return p.broadcast(Update{Reading: r})
}

// Fail delivers a classified failure to every active request and watch.
func (p *PushSource) Fail(reason Reason) int {
	return p.broadcast(Update{Err: &PositionError{Reason: reason}})
}

// Listeners returns the number of active requests and watches.
func (p *PushSource) Listeners() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// AwaitListener blocks until at least one request or watch is listening.
func (p *PushSource) AwaitListener(ctx context.Context) error {
	for {
		p.mu.Lock()
		n := len(p.subs)
		ch := p.subscribed
		p.mu.Unlock()
		if n > 0 {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Current waits for the next pushed reading or failure.
func (p *PushSource) Current(ctx context.Context, opts Options) (Reading, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	id, ch := p.subscribe()
	defer p.unsubscribe(id)

	select {
	case u := <-ch:
		if u.Err != nil {
			return Reading{}, u.Err
		}
		return u.Reading, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Reading{}, &PositionError{Reason: ReasonTimeout, Err: ctx.Err()}
		}
		return Reading{}, ctx.Err()
	}
}

// Watch streams pushed readings until ctx is canceled. When no update
// arrives within opts.Timeout a timeout error is emitted and the watch
// keeps running.
func (p *PushSource) Watch(ctx context.Context, opts Options) (<-chan Update, error) {
	id, in := p.subscribe()
	out := make(chan Update, subscriberBuffer)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultWatchTimeout
	}

	go func() {
		defer close(out)
		defer p.unsubscribe(id)

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		for {
			var u Update
			select {
			case <-ctx.Done():
				return
			case u = <-in:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			case <-timer.C:
				u = Update{Err: &PositionError{Reason: ReasonTimeout}}
			}
			timer.Reset(timeout)

			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
