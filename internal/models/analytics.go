// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package models

import "time"

// SnapshotSource marks whether a snapshot was built from backend data.
type SnapshotSource string

const (
	SnapshotSourceLive SnapshotSource = "live"
	SnapshotSourceDemo SnapshotSource = "demo"
)

// CityCount is one entry of the per-city histogram.
type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// DeviceCount is one entry of the per-device histogram.
type DeviceCount struct {
	Device string `json:"device"`
	Count  int    `json:"count"`
}

// HourCount is one entry of the per-hour histogram (hour 0-23).
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// HeatmapPoint is one geo heatmap sample.
type HeatmapPoint struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Weight float64 `json:"weight"`
	Info   string  `json:"info,omitempty"`
}

// SessionAnalytics summarizes login/logout sessions.
// AvgSessionDuration is expressed in minutes.
type SessionAnalytics struct {
	AvgSessionDuration float64 `json:"avgSessionDuration"`
	TotalSessions      int     `json:"totalSessions"`
	ActiveSessions     int     `json:"activeSessions"`
	PairedSessions     int     `json:"pairedSessions"`
}

// ExternalStats is the summary served by GET /activities/stats.
type ExternalStats struct {
	Total        int     `json:"total"`
	Today        int     `json:"today"`
	ActiveUsers  int     `json:"active_users"`
	SuccessRate  float64 `json:"success_rate"`
	FailedLogins int     `json:"failed_logins"`
}

// AnalyticsSnapshot is the result of one aggregation pass.
type AnalyticsSnapshot struct {
	TotalActivities      int              `json:"totalActivities"`
	ActiveUsers          int              `json:"activeUsers"`
	SuspiciousActivities int              `json:"suspiciousActivities"`
	LocationAnalytics    []CityCount      `json:"locationAnalytics"`
	DeviceAnalytics      []DeviceCount    `json:"deviceAnalytics"`
	HourlyAnalytics      []HourCount      `json:"hourlyAnalytics"`
	RecentActivities     []ActivityEvent  `json:"recentActivities"`
	AlertsCount          int              `json:"alertsCount"`
	SessionAnalytics     SessionAnalytics `json:"sessionAnalytics"`
	GeoHeatmap           []HeatmapPoint   `json:"geoHeatmap"`

	Stats       *ExternalStats `json:"stats,omitempty"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Source      SnapshotSource `json:"source"`
	DemoReason  string         `json:"demoReason,omitempty"`
}
