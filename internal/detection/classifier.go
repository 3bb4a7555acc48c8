// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package detection

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/fieldpulse/internal/models"
)

var (
	failedAttemptsKeys  = []string{"failed_attempts", "failedAttempts"}
	unusualLocationKeys = []string{"unusual_location", "unusualLocation"}
	afterHoursKeys      = []string{"after_hours", "afterHours"}
	multipleDevicesKeys = []string{"multiple_devices", "multipleDevices"}
)

// IsSuspicious reports whether at least one signal holds for ev.
func IsSuspicious(ev *models.ActivityEvent) bool {
	return Classify(ev).Suspicious
}

// Classify evaluates every signal for ev. It never mutates ev.
func Classify(ev *models.ActivityEvent) Judgement {
	j := Judgement{Severity: SeverityInfo}
	if ev == nil {
		return j
	}

	failed := failedAttempts(ev)
	if failed > FailedAttemptsThreshold {
		j.Reasons = append(j.Reasons, ReasonFailedAttempts)
		j.FailedAttempts = failed
	}
	if flag(ev.UnusualLocation, ev.Details, unusualLocationKeys) {
		j.Reasons = append(j.Reasons, ReasonUnusualLocation)
	}
	if flag(ev.AfterHours, ev.Details, afterHoursKeys) {
		j.Reasons = append(j.Reasons, ReasonAfterHours)
	}
	if flag(ev.MultipleDevices, ev.Details, multipleDevicesKeys) {
		j.Reasons = append(j.Reasons, ReasonMultipleDevices)
	}

	switch {
	case len(j.Reasons) == 0:
	case len(j.Reasons) > 1 || failed >= CriticalFailedAttempts:
		j.Suspicious = true
		j.Severity = SeverityCritical
	default:
		j.Suspicious = true
		j.Severity = SeverityWarning
	}
	return j
}

// Suspicious returns the flagged events of events, most recent first.
func Suspicious(events []models.ActivityEvent) []Flagged {
	var out []Flagged
	for i := range events {
		if j := Classify(&events[i]); j.Suspicious {
			out = append(out, Flagged{Event: events[i], Judgement: j})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Event.Timestamp.After(out[b].Event.Timestamp)
	})
	return out
}

// failedAttempts returns the largest failure count found on ev.
func failedAttempts(ev *models.ActivityEvent) int {
	best := 0
	if ev.FailedAttempts != nil {
		best = *ev.FailedAttempts
	}
	for _, key := range failedAttemptsKeys {
		v, ok := ev.Details[key]
		if !ok {
			continue
		}
		if n, ok := toNumber(v); ok && n > float64(best) {
			if n > math.MaxInt32 {
				n = math.MaxInt32
			}
			best = int(math.Floor(n))
		}
	}
	return best
}

func flag(top *bool, details map[string]any, keys []string) bool {
	if top != nil && *top {
		return true
	}
	for _, key := range keys {
		if v, ok := details[key]; ok && toBool(v) {
			return true
		}
	}
	return false
}

type floater interface {
	Float64() (float64, error)
}

// toNumber accepts any Go numeric kind, numeric strings and json.Number.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f)
	case floater:
		f, err := n.Float64()
		return f, err == nil && !math.IsNaN(f)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f, !math.IsNaN(f)
	default:
		return 0, false
	}
}

// toBool accepts only an explicit true; strings must spell "true".
func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	default:
		return false
	}
}
