// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

/*
Package detection implements the suspicious activity classifier.

An event is suspicious when any one of four independent signals holds:

  - failed_attempts > 3
  - unusual_location is true
  - after_hours is true
  - multiple_devices is true

Signals are read from the event's details bag (snake_case or camelCase
keys) and from the event's top-level signal fields. Thresholds are fixed
constants; the classifier is a heuristic, not a statistical model.

IsSuspicious answers the yes/no question used by the aggregation engine.
Classify additionally reports which signals matched and a severity, which
the dashboard uses to highlight rows.
*/
package detection
