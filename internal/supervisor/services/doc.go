// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package services adapts components without a suture-ready lifecycle to
// suture.Service.
//
//   - HTTPServerService runs an *http.Server and shuts it down gracefully.
//   - NamedService gives a context-aware run loop a name for supervisor logs.
//
// Components that already implement Serve(ctx) error and String() (the
// WebSocket hub, the bus consumer, the dashboard refresher, the outbox
// retrier) are added to the tree directly.
package services
