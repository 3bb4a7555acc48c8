// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package analytics

import (
	"sort"
	"time"

	"github.com/tomtom215/fieldpulse/internal/detection"
	"github.com/tomtom215/fieldpulse/internal/models"
)

// DefaultDisplayLimit caps recentActivities when no limit is given.
const DefaultDisplayLimit = 20

// HeatmapWeight is the fixed weight of every heatmap point.
const HeatmapWeight = 1.0

type options struct {
	limit    int
	location *time.Location
}

// Option tunes Aggregate.
type Option func(*options)

// WithLimit caps recentActivities. Non-positive values keep the default.
func WithLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

// WithLocation sets the zone used for hour-of-day buckets.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// Aggregate summarizes events. stats is the optional backend summary; its
// failed login count is added to alertsCount. The input slice is not
// modified.
func Aggregate(events []models.ActivityEvent, stats *models.ExternalStats, opts ...Option) models.AnalyticsSnapshot {
	o := options{limit: DefaultDisplayLimit, location: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	cities := make(map[string]int)
	devices := make(map[string]int)
	var hours [24]int
	users := make(map[string]struct{})
	suspicious := 0
	heatmap := make([]models.HeatmapPoint, 0)

	for i := range events {
		ev := &events[i]

		if city := ev.City(); city != "" {
			cities[city]++
		}
		if dt := ev.DeviceType(); dt != "" {
			devices[dt]++
		}
		hours[ev.Timestamp.In(o.location).Hour()]++
		if ev.UserID != "" {
			users[ev.UserID] = struct{}{}
		}
		if detection.IsSuspicious(ev) {
			suspicious++
		}
		if lat, lng, ok := ev.Location.Coordinates(); ok {
			heatmap = append(heatmap, models.HeatmapPoint{
				Lat:    lat,
				Lng:    lng,
				Weight: HeatmapWeight,
				Info:   heatmapInfo(ev),
			})
		}
	}

	snap := models.AnalyticsSnapshot{
		TotalActivities:      len(events),
		ActiveUsers:          len(users),
		SuspiciousActivities: suspicious,
		LocationAnalytics:    cityHistogram(cities),
		DeviceAnalytics:      deviceHistogram(devices),
		HourlyAnalytics:      hourHistogram(hours),
		RecentActivities:     Recent(events, o.limit),
		AlertsCount:          suspicious,
		SessionAnalytics:     ComputeSessionStats(events),
		GeoHeatmap:           heatmap,
		Source:               models.SnapshotSourceLive,
	}
	if stats != nil {
		s := *stats
		snap.Stats = &s
		snap.AlertsCount += stats.FailedLogins
	}
	return snap
}

// Recent returns a copy of events sorted most recent first and truncated
// to limit. Events with equal timestamps keep their input order.
func Recent(events []models.ActivityEvent, limit int) []models.ActivityEvent {
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}
	sorted := make([]models.ActivityEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func heatmapInfo(ev *models.ActivityEvent) string {
	name := ev.UserName
	if name == "" {
		name = ev.UserID
	}
	if name == "" {
		return string(ev.Action)
	}
	return name + " - " + string(ev.Action)
}

func cityHistogram(m map[string]int) []models.CityCount {
	out := make([]models.CityCount, 0, len(m))
	for city, n := range m {
		out = append(out, models.CityCount{City: city, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].City < out[j].City
	})
	return out
}

func deviceHistogram(m map[string]int) []models.DeviceCount {
	out := make([]models.DeviceCount, 0, len(m))
	for device, n := range m {
		out = append(out, models.DeviceCount{Device: device, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Device < out[j].Device
	})
	return out
}

func hourHistogram(hours [24]int) []models.HourCount {
	out := make([]models.HourCount, 24)
	for h := range hours {
		out[h] = models.HourCount{Hour: h, Count: hours[h]}
	}
	return out
}
