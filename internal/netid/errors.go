// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package netid

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAddress is returned when no usable public address is known.
	ErrNoAddress = errors.New("netid: no public address")

	// ErrPrivateAddress is returned for loopback, link-local and RFC 1918 addresses.
	ErrPrivateAddress = errors.New("netid: address is not publicly routable")

	// ErrRateLimited is returned when the provider budget is exhausted.
	ErrRateLimited = errors.New("netid: rate limit exceeded")

	// ErrDisabled is returned when resolution is turned off.
	ErrDisabled = errors.New("netid: resolver disabled")
)

// Error records the failed operation ("public_address" or "location").
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("netid %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
