// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package services

import (
	"context"
)

// Runner is anything with a context-aware run loop, such as
// *geo.Registry's sweeper.
type Runner interface {
	Serve(ctx context.Context) error
}

// NamedService gives a Runner a name for supervisor logs.
//
// Example usage:
//
//	registry := geo.NewRegistry(trackerCfg, idleTTL, time.Minute)
//	tree.AddStorageService(services.NewNamedService(registry, "session-registry"))
type NamedService struct {
	runner Runner
	name   string
}

// NewNamedService wraps runner under name.
func NewNamedService(runner Runner, name string) *NamedService {
	return &NamedService{runner: runner, name: name}
}

// Serve implements suture.Service by delegating to the runner.
func (s *NamedService) Serve(ctx context.Context) error {
	return s.runner.Serve(ctx)
}

// String implements fmt.Stringer. Suture uses it to identify the service
// in log messages.
func (s *NamedService) String() string {
	return s.name
}
