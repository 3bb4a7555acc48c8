// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package models

import (
	"math"
	"time"
)

// Action tags the kind of user action an event records.
type Action string

// Action catalog exposed by the event recorder.
const (
	ActionLogin          Action = "login"
	ActionLogout         Action = "logout"
	ActionClinicCreate   Action = "clinic_create"
	ActionVisitCreate    Action = "visit_create"
	ActionInvoiceCreate  Action = "invoice_create"
	ActionOrderCreate    Action = "order_create"
	ActionUserCreate     Action = "user_create"
	ActionPageView       Action = "page_view"
	ActionPaymentCreate  Action = "payment_create"
	ActionDebtCreate     Action = "debt_create"
	ActionProductCreate  Action = "product_create"
	ActionSettingsUpdate Action = "settings_update"
)

var actionCatalog = map[Action]struct{}{
	ActionLogin:          {},
	ActionLogout:         {},
	ActionClinicCreate:   {},
	ActionVisitCreate:    {},
	ActionInvoiceCreate:  {},
	ActionOrderCreate:    {},
	ActionUserCreate:     {},
	ActionPageView:       {},
	ActionPaymentCreate:  {},
	ActionDebtCreate:     {},
	ActionProductCreate:  {},
	ActionSettingsUpdate: {},
}

// Valid reports whether a is part of the recorder catalog.
func (a Action) Valid() bool {
	_, ok := actionCatalog[a]
	return ok
}

// Actions returns the catalog in a stable order.
func Actions() []Action {
	return []Action{
		ActionLogin, ActionLogout, ActionClinicCreate, ActionVisitCreate,
		ActionInvoiceCreate, ActionOrderCreate, ActionUserCreate, ActionPageView,
		ActionPaymentCreate, ActionDebtCreate, ActionProductCreate, ActionSettingsUpdate,
	}
}

// Device types produced by the profiler.
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"

	// Unknown is used for browser, OS and screen values that could not be derived.
	Unknown = "Unknown"
)

// DeviceInfo is the device fingerprint attached to an event.
type DeviceInfo struct {
	DeviceType       string  `json:"deviceType"`
	Browser          string  `json:"browser"`
	OS               string  `json:"os"`
	ScreenResolution string  `json:"screenResolution"`
	Timezone         string  `json:"timezone"`
	Connection       *string `json:"connection"`
}

// LocationSource identifies where a Location came from.
type LocationSource string

const (
	LocationSourceGPS     LocationSource = "gps"
	LocationSourceNetwork LocationSource = "network"
)

// Location is a coordinate and place record. A GPS fix normally carries
// only coordinates and accuracy; a network approximation carries the
// place fields and coarse coordinates.
type Location struct {
	Lat      *float64       `json:"lat,omitempty"`
	Lng      *float64       `json:"lng,omitempty"`
	Accuracy *float64       `json:"accuracy,omitempty"`
	City     string         `json:"city,omitempty"`
	Region   string         `json:"region,omitempty"`
	Country  string         `json:"country,omitempty"`
	Timezone string         `json:"timezone,omitempty"`
	ISP      string         `json:"isp,omitempty"`
	Source   LocationSource `json:"source,omitempty"`
}

// Coordinates returns lat/lng when both are present and finite.
func (l *Location) Coordinates() (lat, lng float64, ok bool) {
	if l == nil || l.Lat == nil || l.Lng == nil {
		return 0, 0, false
	}
	lat, lng = *l.Lat, *l.Lng
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return 0, 0, false
	}
	return lat, lng, true
}

// ActivityEvent is one recorded user action.
type ActivityEvent struct {
	EventID     string         `json:"eventId,omitempty"`
	ID          string         `json:"id,omitempty"`
	Action      Action         `json:"action"`
	Description string         `json:"description"`
	UserID      string         `json:"userId,omitempty"`
	UserName    string         `json:"userName,omitempty"`
	UserRole    string         `json:"userRole,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	SessionID   string         `json:"sessionId,omitempty"`
	Success     *bool          `json:"success,omitempty"`
	DeviceInfo  *DeviceInfo    `json:"deviceInfo,omitempty"`
	Location    *Location      `json:"location,omitempty"`
	GeoLocation *Location      `json:"geoLocation,omitempty"`
	IPAddress   string         `json:"ipAddress,omitempty"`
	Details     map[string]any `json:"details,omitempty"`

	// Top-level security signals. Most callers put these in Details.
	FailedAttempts  *int  `json:"failedAttempts,omitempty"`
	UnusualLocation *bool `json:"unusualLocation,omitempty"`
	AfterHours      *bool `json:"afterHours,omitempty"`
	MultipleDevices *bool `json:"multipleDevices,omitempty"`
}

// Succeeded reports the action outcome; an omitted value means success.
func (e *ActivityEvent) Succeeded() bool {
	return e.Success == nil || *e.Success
}

// City returns the authoritative location city, falling back to the
// network place record when the authoritative source has none.
func (e *ActivityEvent) City() string {
	if e.Location != nil && e.Location.City != "" {
		return e.Location.City
	}
	if e.GeoLocation != nil {
		return e.GeoLocation.City
	}
	return ""
}

// DeviceType returns deviceInfo.deviceType or "".
func (e *ActivityEvent) DeviceType() string {
	if e.DeviceInfo == nil {
		return ""
	}
	return e.DeviceInfo.DeviceType
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// String returns a pointer to s.
func String(s string) *string { return &s }
