// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package profiler derives the device fingerprint attached to every
// activity event. Profile is a pure function over an explicit capability
// descriptor so it can be exercised with synthetic inputs; FromRequest
// builds that descriptor from an inbound HTTP request.
package profiler

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/tomtom215/fieldpulse/internal/models"
)

// Capabilities describes the client runtime.
type Capabilities struct {
	UserAgent    string
	ScreenWidth  int
	ScreenHeight int
	Timezone     string
	// Connection is the network information hint (e.g. "4g"); nil when
	// the client does not expose it.
	Connection *string
}

var (
	mobilePattern = regexp.MustCompile(`(?i)mobile|iphone|ipod|android.*mobi|iemobile|blackberry|opera m(obi|ini)`)
	tabletPattern = regexp.MustCompile(`(?i)tablet|ipad|playbook|silk|kindle|android`)
)

type match struct {
	name   string
	tokens []string
}

// Checked in order; the first hit wins. Edge agents also carry "Chrome"
// and are therefore reported as Chrome.
var browsers = []match{
	{"Chrome", []string{"Chrome"}},
	{"Firefox", []string{"Firefox"}},
	{"Safari", []string{"Safari"}},
	{"Edge", []string{"Edg"}},
}

// Checked in order; Android agents also carry "Linux", and Apple mobile
// agents carry "like Mac OS X".
var operatingSystems = []match{
	{"Windows", []string{"Windows"}},
	{"macOS", []string{"Mac"}},
	{"Linux", []string{"Linux"}},
	{"Android", []string{"Android"}},
	{"iOS", []string{"iPhone", "iPad", "iPod", "iOS"}},
}

// Profile classifies caps into a DeviceInfo. It never fails; fields that
// cannot be derived are "Unknown" (or nil for the connection hint).
func Profile(caps Capabilities) models.DeviceInfo {
	info := models.DeviceInfo{
		DeviceType:       DeviceType(caps.UserAgent),
		Browser:          firstMatch(caps.UserAgent, browsers),
		OS:               firstMatch(caps.UserAgent, operatingSystems),
		ScreenResolution: models.Unknown,
		Timezone:         models.Unknown,
	}
	if caps.ScreenWidth > 0 && caps.ScreenHeight > 0 {
		info.ScreenResolution = fmt.Sprintf("%dx%d", caps.ScreenWidth, caps.ScreenHeight)
	}
	if tz := strings.TrimSpace(caps.Timezone); tz != "" {
		info.Timezone = tz
	}
	if caps.Connection != nil && strings.TrimSpace(*caps.Connection) != "" {
		c := strings.TrimSpace(*caps.Connection)
		info.Connection = &c
	}
	return info
}

// DeviceType applies the mobile pattern, then the tablet pattern, and
// defaults to Desktop.
func DeviceType(userAgent string) string {
	switch {
	case mobilePattern.MatchString(userAgent):
		return models.DeviceMobile
	case tabletPattern.MatchString(userAgent):
		return models.DeviceTablet
	default:
		return models.DeviceDesktop
	}
}

func firstMatch(userAgent string, list []match) string {
	for _, m := range list {
		for _, tok := range m.tokens {
			if strings.Contains(userAgent, tok) {
				return m.name
			}
		}
	}
	return models.Unknown
}

// Hints are the capabilities only the client can report (posted alongside
// the action by the front end).
type Hints struct {
	ScreenWidth  int    `json:"screenWidth,omitempty" validate:"gte=0,lte=16384"`
	ScreenHeight int    `json:"screenHeight,omitempty" validate:"gte=0,lte=16384"`
	Timezone     string `json:"timezone,omitempty" validate:"max=64"`
	Connection   string `json:"connection,omitempty" validate:"max=16"`
}

// FromRequest builds a descriptor from the request User-Agent plus the
// client hints. When the client did not post a connection hint, the ECT
// client-hint header is used.
func FromRequest(r *http.Request, hints Hints) Capabilities {
	caps := Capabilities{
		UserAgent:    r.UserAgent(),
		ScreenWidth:  hints.ScreenWidth,
		ScreenHeight: hints.ScreenHeight,
		Timezone:     hints.Timezone,
	}
	conn := hints.Connection
	if conn == "" {
		conn = r.Header.Get("ECT")
	}
	if conn != "" {
		caps.Connection = &conn
	}
	return caps
}
