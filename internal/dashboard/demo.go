// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package dashboard

import (
	"fmt"
	"time"

	"github.com/tomtom215/fieldpulse/internal/models"
)

type demoUser struct {
	id, name, role string
}

type demoPlace struct {
	city, region string
	lat, lng     float64
}

var (
	demoUsers = []demoUser{
		{"demo-1", "Ahmed Hassan", "sales_rep"},
		{"demo-2", "Mona Adel", "sales_rep"},
		{"demo-3", "Karim Saleh", "supervisor"},
		{"demo-4", "Nour Fathy", "admin"},
	}
	demoPlaces = []demoPlace{
		{"Cairo", "Cairo Governorate", 30.0444, 31.2357},
		{"Alexandria", "Alexandria Governorate", 31.2001, 29.9187},
		{"Giza", "Giza Governorate", 30.0131, 31.2089},
		{"Mansoura", "Dakahlia Governorate", 31.0409, 31.3785},
	}
	demoDevices = []models.DeviceInfo{
		{DeviceType: models.DeviceMobile, Browser: "Chrome", OS: "Linux", ScreenResolution: "412x915", Timezone: "Africa/Cairo"},
		{DeviceType: models.DeviceDesktop, Browser: "Chrome", OS: "Windows", ScreenResolution: "1920x1080", Timezone: "Africa/Cairo"},
		{DeviceType: models.DeviceTablet, Browser: "Safari", OS: "macOS", ScreenResolution: "820x1180", Timezone: "Africa/Cairo"},
	}
)

type demoStep struct {
	user    int
	place   int
	device  int
	ago     time.Duration
	action  models.Action
	desc    string
	success bool
	details map[string]any
}

// The script covers every histogram: several cities and devices, a
// login/logout pair per session and two suspicious events.
var demoScript = []demoStep{
	{0, 0, 0, 7 * time.Hour, models.ActionLogin, "User logged in", true, map[string]any{"login_method": "password"}},
	{0, 0, 0, 6*time.Hour + 40*time.Minute, models.ActionVisitCreate, "Visited clinic Al Shifa", true, map[string]any{"clinic_name": "Al Shifa", "visit_type": "follow_up"}},
	{0, 0, 0, 6 * time.Hour, models.ActionOrderCreate, "Created order ORD-1042 for Al Shifa", true, map[string]any{"order_number": "ORD-1042", "clinic_name": "Al Shifa", "total_amount": 4200.0, "items_count": 3}},
	{0, 0, 0, 4*time.Hour + 30*time.Minute, models.ActionLogout, "User logged out", true, map[string]any{"reason": "user"}},
	{1, 1, 0, 5 * time.Hour, models.ActionLogin, "User logged in", true, map[string]any{"login_method": "password"}},
	{1, 1, 0, 4 * time.Hour, models.ActionClinicCreate, "Created clinic Nile Care", true, map[string]any{"clinic_name": "Nile Care", "clinic_type": "dental", "city": "Alexandria"}},
	{1, 1, 0, 3 * time.Hour, models.ActionInvoiceCreate, "Created invoice INV-2291 for Nile Care", true, map[string]any{"invoice_number": "INV-2291", "clinic_name": "Nile Care", "amount": 1850.0, "currency": "EGP", "items_count": 2}},
	{1, 1, 0, 2 * time.Hour, models.ActionLogout, "User logged out", true, map[string]any{"reason": "user"}},
	{2, 2, 1, 3 * time.Hour, models.ActionLogin, "User logged in", true, map[string]any{"login_method": "sso"}},
	{2, 2, 1, 2*time.Hour + 30*time.Minute, models.ActionPaymentCreate, "Recorded payment for invoice INV-2291", true, map[string]any{"invoice_number": "INV-2291", "amount": 900.0, "method": "cash"}},
	{2, 3, 1, 90 * time.Minute, models.ActionPageView, "Viewed /reports", true, map[string]any{"page": "/reports", "unusual_location": true}},
	{3, 0, 2, time.Hour, models.ActionLogin, "Failed login attempt", false, map[string]any{"login_method": "password", "failed_attempts": 5}},
	{3, 0, 2, 50 * time.Minute, models.ActionLogin, "User logged in", true, map[string]any{"login_method": "password"}},
	{3, 0, 2, 20 * time.Minute, models.ActionSettingsUpdate, "Updated notifications settings", true, map[string]any{"section": "notifications", "changed_keys": []string{"email"}}},
}

// DemoEvents returns the demo dataset anchored at now. The result is the
// same for the same now.
func DemoEvents(now time.Time) []models.ActivityEvent {
	events := make([]models.ActivityEvent, 0, len(demoScript))
	for i, step := range demoScript {
		u := demoUsers[step.user]
		p := demoPlaces[step.place]
		d := demoDevices[step.device]

		details := make(map[string]any, len(step.details))
		for k, v := range step.details {
			details[k] = v
		}

		events = append(events, models.ActivityEvent{
			EventID:     fmt.Sprintf("demo-event-%02d", i+1),
			ID:          fmt.Sprintf("demo-%02d", i+1),
			Action:      step.action,
			Description: step.desc,
			UserID:      u.id,
			UserName:    u.name,
			UserRole:    u.role,
			Timestamp:   now.Add(-step.ago),
			SessionID:   "demo-session-" + u.id,
			Success:     models.Bool(step.success),
			DeviceInfo:  &d,
			Location: &models.Location{
				Lat:     models.Float(p.lat),
				Lng:     models.Float(p.lng),
				City:    p.city,
				Region:  p.region,
				Country: "Egypt",
				Source:  models.LocationSourceNetwork,
			},
			Details: details,
		})
	}
	return events
}
