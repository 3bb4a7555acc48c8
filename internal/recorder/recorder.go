// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/fieldpulse/internal/auth"
	"github.com/tomtom215/fieldpulse/internal/breaker"
	"github.com/tomtom215/fieldpulse/internal/geo"
	"github.com/tomtom215/fieldpulse/internal/logging"
	"github.com/tomtom215/fieldpulse/internal/metrics"
	"github.com/tomtom215/fieldpulse/internal/models"
	"github.com/tomtom215/fieldpulse/internal/netid"
	"github.com/tomtom215/fieldpulse/internal/profiler"
	"github.com/tomtom215/fieldpulse/internal/session"
)

// DefaultAsyncTimeout bounds a detached RecordAsync call.
const DefaultAsyncTimeout = 30 * time.Second

// Transmitter sends a composed event to the collection backend.
type Transmitter interface {
	Record(ctx context.Context, token string, ev *models.ActivityEvent) (string, error)
}

// AddressResolver provides the network fallback.
type AddressResolver interface {
	ResolvePublicAddress(ctx context.Context) (string, error)
	ResolveLocation(ctx context.Context, address string) (*models.Location, error)
}

// PositionProvider returns the found position of a session, if any.
type PositionProvider interface {
	Best(sessionID string) (geo.Reading, bool)
}

// Spooler buffers events whose transmission failed.
type Spooler interface {
	Spool(ev *models.ActivityEvent, token string, cause error) error
}

// Publisher announces successfully recorded events.
type Publisher interface {
	Publish(ctx context.Context, ev *models.ActivityEvent) error
}

// Partial holds the caller-supplied part of an event. Identity, token and
// session default to the values carried by ctx (auth.Credential and
// session.Context) when left empty.
type Partial struct {
	Action      models.Action
	Description string
	UserID      string
	UserName    string
	UserRole    string
	Success     *bool
	Details     map[string]any

	// Capabilities describe the caller's device; nil profiles an unknown device.
	Capabilities *profiler.Capabilities
	// ClientAddress is the caller's network address when known.
	ClientAddress string
	// Token is the bearer credential forwarded to the collector.
	Token string
	// Session overrides the session of ctx and of the recorder.
	Session *session.Context
}

// Recorder composes and transmits activity events.
type Recorder struct {
	session     *session.Context
	transmitter Transmitter
	resolver    AddressResolver
	positions   PositionProvider
	spooler     Spooler
	publisher   Publisher

	now          func() time.Time
	newID        func() string
	asyncTimeout time.Duration

	wg sync.WaitGroup
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithResolver enables the network fallback.
func WithResolver(r AddressResolver) Option { return func(rec *Recorder) { rec.resolver = r } }

// WithPositions supplies tracker positions by session.
func WithPositions(p PositionProvider) Option { return func(rec *Recorder) { rec.positions = p } }

// WithSpooler buffers failed transmissions.
func WithSpooler(s Spooler) Option { return func(rec *Recorder) { rec.spooler = s } }

// WithPublisher announces recorded events.
func WithPublisher(p Publisher) Option { return func(rec *Recorder) { rec.publisher = p } }

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option { return func(rec *Recorder) { rec.now = now } }

// WithAsyncTimeout bounds RecordAsync calls.
func WithAsyncTimeout(d time.Duration) Option { return func(rec *Recorder) { rec.asyncTimeout = d } }

// New creates a recorder. sess is the default session context, used when
// neither the call nor its context carries one; nil creates a fresh one.
func New(sess *session.Context, tx Transmitter, opts ...Option) *Recorder {
	if sess == nil {
		sess = session.New()
	}
	r := &Recorder{
		session:      sess,
		transmitter:  tx,
		now:          time.Now,
		newID:        uuid.NewString,
		asyncTimeout: DefaultAsyncTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record composes and transmits one event. It returns the recorded event,
// or nil when the event could not be composed or transmitted.
func (r *Recorder) Record(ctx context.Context, p Partial) (recorded *models.ActivityEvent) {
	defer func() {
		if v := recover(); v != nil {
			logging.Ctx(ctx).Error().Interface("panic", v).Str("action", string(p.Action)).Msg("activity recording panicked")
			metrics.RecordEventOutcome(string(p.Action), "panic")
			recorded = nil
		}
	}()

	if !p.Action.Valid() {
		logging.Ctx(ctx).Warn().Str("action", string(p.Action)).Msg("activity not recorded: action outside catalog")
		metrics.RecordEventOutcome(string(p.Action), "invalid_action")
		return nil
	}

	ev, token, enrichErrs := r.compose(ctx, p)
	for _, err := range enrichErrs {
		var ee *EnrichmentError
		if errors.As(err, &ee) {
			metrics.EnrichmentFailures.WithLabelValues(ee.Source).Inc()
		}
		logging.Ctx(ctx).Debug().Err(err).Str("event_id", ev.EventID).Msg("enrichment fell back")
	}

	id, err := r.transmitter.Record(ctx, token, ev)
	if err != nil {
		r.handleFailure(ctx, ev, token, err)
		return nil
	}
	ev.ID = id
	metrics.RecordEventOutcome(string(ev.Action), "")

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, ev); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("event_id", ev.EventID).Msg("failed to publish recorded activity")
		}
	}
	return ev
}

func (r *Recorder) handleFailure(ctx context.Context, ev *models.ActivityEvent, token string, err error) {
	reason := "collector"
	if breaker.IsRejected(err) {
		reason = "breaker_open"
	}
	metrics.RecordEventOutcome(string(ev.Action), reason)

	log := logging.Ctx(ctx).Warn().Err(err).
		Str("event_id", ev.EventID).
		Str("action", string(ev.Action))

	if r.spooler == nil {
		log.Msg("activity transmission failed; event dropped")
		return
	}
	if spoolErr := r.spooler.Spool(ev, token, err); spoolErr != nil {
		log.AnErr("spool_error", spoolErr).Msg("activity transmission failed; event dropped")
		return
	}
	log.Msg("activity transmission failed; event buffered for retry")
}

// RecordAsync records p on a detached context without blocking the caller.
// Request-scoped values of ctx (credential, session, log ids) are kept.
func (r *Recorder) RecordAsync(ctx context.Context, p Partial) {
	detached := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		callCtx, cancel := context.WithTimeout(detached, r.asyncTimeout)
		defer cancel()
		r.Record(callCtx, p)
	}()
}

// Wait blocks until every RecordAsync call has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// compose builds the event. Enrichment errors are returned, never fatal.
func (r *Recorder) compose(ctx context.Context, p Partial) (*models.ActivityEvent, string, []error) {
	cred, _ := auth.CredentialFromContext(ctx)
	token := p.Token
	if token == "" {
		token = cred.Token
	}

	sess := p.Session
	if sess == nil {
		if s, ok := session.FromContext(ctx); ok {
			sess = s
		} else {
			sess = r.session
		}
	}

	success := true
	if p.Success != nil {
		success = *p.Success
	}

	ev := &models.ActivityEvent{
		EventID:     r.newID(),
		Action:      p.Action,
		Description: p.Description,
		UserID:      firstNonEmpty(p.UserID, cred.Identity.UserID),
		UserName:    firstNonEmpty(p.UserName, cred.Identity.UserName),
		UserRole:    firstNonEmpty(p.UserRole, cred.Identity.UserRole),
		Timestamp:   r.now(),
		SessionID:   sess.ID(),
		Success:     models.Bool(success),
		Details:     copyDetails(p.Details),
	}

	var errs []error
	if ev.UserID == "" && ev.UserName == "" {
		errs = append(errs, &EnrichmentError{Source: SourceIdentity, Err: errors.New("no actor identity")})
	}

	enr := r.enrich(ctx, ev.SessionID, p)
	ev.DeviceInfo = &enr.device
	ev.Location = enr.location
	ev.IPAddress = enr.address
	errs = append(errs, enr.errs...)

	return ev, token, errs
}

func copyDetails(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Enrichment sources, used as metric labels.
const (
	SourcePublicAddress   = "public_address"
	SourceNetworkLocation = "network_location"
	SourcePosition        = "position"
	SourceIdentity        = "identity"
)

// EnrichmentError records a failed enrichment step.
type EnrichmentError struct {
	Source string
	Err    error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrich %s: %v", e.Source, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

type enrichment struct {
	device   models.DeviceInfo
	location *models.Location
	address  string
	errs     []error
}

type networkResult struct {
	address  string
	location *models.Location
	errs     []error
}

// enrich gathers device, position and network context. The resolver is
// consulted only when the session has no found fix; the network lookups
// then run concurrently with profiling and the location lookup waits for
// the address it depends on.
func (r *Recorder) enrich(ctx context.Context, sessionID string, p Partial) enrichment {
	var (
		fix    geo.Reading
		hasFix bool
	)
	if r.positions != nil {
		fix, hasFix = r.positions.Best(sessionID)
	}

	var netc chan networkResult
	if !hasFix {
		netc = make(chan networkResult, 1)
		go func() { netc <- r.resolveNetwork(ctx, p.ClientAddress) }()
	}

	var caps profiler.Capabilities
	if p.Capabilities != nil {
		caps = *p.Capabilities
	}
	out := enrichment{device: profiler.Profile(caps)}

	if hasFix {
		if address := netid.NormalizeAddress(p.ClientAddress); netid.IsValidPublicIP(address) {
			out.address = address
		}
		out.location = &models.Location{
			Lat:    models.Float(fix.Lat),
			Lng:    models.Float(fix.Lng),
			Source: models.LocationSourceGPS,
		}
		if fix.Accuracy > 0 {
			out.location.Accuracy = models.Float(fix.Accuracy)
		}
		return out
	}

	nr := <-netc
	out.address = nr.address
	out.errs = nr.errs
	out.location = nr.location
	return out
}

func (r *Recorder) resolveNetwork(ctx context.Context, clientAddress string) networkResult {
	var res networkResult
	if r.resolver == nil {
		return res
	}

	address := netid.NormalizeAddress(clientAddress)
	if !netid.IsValidPublicIP(address) {
		resolved, err := r.resolver.ResolvePublicAddress(ctx)
		if err != nil {
			res.errs = append(res.errs, &EnrichmentError{Source: SourcePublicAddress, Err: err})
			if clientAddress != "" {
				res.address = address
			}
			return res
		}
		address = resolved
	}
	res.address = address

	loc, err := r.resolver.ResolveLocation(ctx, address)
	if err != nil {
		res.errs = append(res.errs, &EnrichmentError{Source: SourceNetworkLocation, Err: err})
		return res
	}
	res.location = loc
	return res
}
