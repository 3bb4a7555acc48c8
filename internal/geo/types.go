// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// State is the tracker lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateLocating   State = "locating"
	StateFound      State = "found"
	StateError      State = "error"
)

// Reason classifies a position failure.
type Reason string

const (
	ReasonPermissionDenied Reason = "permission_denied"
	ReasonUnavailable      Reason = "unavailable"
	ReasonTimeout          Reason = "timeout"
	ReasonUnknown          Reason = "unknown"
)

// ParseReason maps a reported reason string to a Reason, defaulting to unknown.
func ParseReason(s string) Reason {
	switch Reason(s) {
	case ReasonPermissionDenied, ReasonUnavailable, ReasonTimeout:
		return Reason(s)
	default:
		return ReasonUnknown
	}
}

// Message returns the text shown to the end user for r.
func (r Reason) Message() string {
	switch r {
	case ReasonPermissionDenied:
		return "Location access was denied. Allow location access in your browser settings to attach your position to activities."
	case ReasonUnavailable:
		return "Your position is currently unavailable. Check that location services are enabled on this device."
	case ReasonTimeout:
		return "Getting your position took too long. Move to an area with better signal and try again."
	default:
		return "Your position could not be determined."
	}
}

// Reading is one position fix. Accuracy is the radius in meters; smaller is
// better. Zero means the source did not report one.
type Reading struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// rank orders readings by accuracy. Unknown accuracy ranks worst.
func (r Reading) rank() float64 {
	if r.Accuracy > 0 {
		return r.Accuracy
	}
	return math.Inf(1)
}

// Options mirror the platform position request options.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaximumAge is how old a cached reading may be; zero forbids cached reads.
	MaximumAge time.Duration
}

// Update is delivered on a watch channel: either a reading or an error.
type Update struct {
	Reading Reading
	Err     error
}

// PositionSource provides position fixes.
type PositionSource interface {
	// Current returns a single fix honoring opts.
	Current(ctx context.Context, opts Options) (Reading, error)
	// Watch streams fixes until ctx is canceled, then closes the channel.
	Watch(ctx context.Context, opts Options) (<-chan Update, error)
}

// PermissionChecker is implemented by sources that gate access behind a
// user permission prompt. The tracker stays in requesting until it returns.
type PermissionChecker interface {
	RequestPermission(ctx context.Context) error
}

// PositionError is a classified position failure.
type PositionError struct {
	Reason Reason
	Err    error
}

func (e *PositionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("position %s: %v", e.Reason, e.Err)
	}
	return "position " + string(e.Reason)
}

func (e *PositionError) Unwrap() error { return e.Err }

// ErrStopped is returned when a request is abandoned because the tracker stopped.
var ErrStopped = errors.New("geo: tracker stopped")

// Classify converts any error into a *PositionError.
func Classify(err error) *PositionError {
	if err == nil {
		return nil
	}
	var pe *PositionError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &PositionError{Reason: ReasonTimeout, Err: err}
	}
	return &PositionError{Reason: ReasonUnknown, Err: err}
}
