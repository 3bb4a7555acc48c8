// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package eventbus fans recorded activity events out to in-process
// consumers and, optionally, to NATS.
//
// Every successfully recorded event is published to the
// TopicActivityRecorded topic of a Watermill gochannel. The WebSocket hub
// consumes that topic to push live activity to dashboards. When a NATS
// URL is configured the same payload is also published to a core NATS
// subject (JetStream disabled) for external consumers.
//
// Publishing never blocks on slow consumers and never fails a recording:
// errors are counted and logged by the recorder.
package eventbus
