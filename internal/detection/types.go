// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package detection

import "github.com/tomtom215/fieldpulse/internal/models"

// Severity indicates how strongly an event should be highlighted.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Reason names a classifier signal.
type Reason string

const (
	ReasonFailedAttempts  Reason = "failed_attempts"
	ReasonUnusualLocation Reason = "unusual_location"
	ReasonAfterHours      Reason = "after_hours"
	ReasonMultipleDevices Reason = "multiple_devices"
)

const (
	// FailedAttemptsThreshold is exclusive: more than this many failures flags the event.
	FailedAttemptsThreshold = 3

	// CriticalFailedAttempts escalates a single failed-attempts signal to critical.
	CriticalFailedAttempts = 10
)

// Judgement is the classifier output for one event.
type Judgement struct {
	Suspicious     bool     `json:"suspicious"`
	Severity       Severity `json:"severity"`
	Reasons        []Reason `json:"reasons,omitempty"`
	FailedAttempts int      `json:"failedAttempts,omitempty"`
}

// Flagged pairs a suspicious event with its judgement.
type Flagged struct {
	Event     models.ActivityEvent `json:"event"`
	Judgement Judgement            `json:"judgement"`
}
