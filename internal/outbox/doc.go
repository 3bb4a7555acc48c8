// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package outbox is an optional local delivery buffer for activity events
// whose transmission to the collector failed.
//
// Events are persisted to BadgerDB together with the caller's bearer token
// and an attempt counter:
//
//	Record → collector fails → Spool (durable) → Retrier → collector → delete
//	                                                  ↓ (max retries)
//	                                               dropped
//
// The Retrier re-sends due entries on every tick. After n failed attempts
// an entry waits BackoffBase × 2^n, capped at BackoffMax, before the next
// one. Entries that reach MaxRetries are dropped and logged.
//
// The outbox is off by default; without it a failed transmission is
// logged and dropped.
package outbox
