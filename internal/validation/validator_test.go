// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	Action     string   `json:"action" validate:"required,activity_action"`
	TimeFilter string   `json:"time_filter" validate:"time_filter"`
	Limit      int      `json:"limit" validate:"gte=0,lte=1000"`
	Lat        *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng        *float64 `json:"lng" validate:"omitempty,longitude"`
	Note       string   `json:"note,omitempty" validate:"max=5"`
	NoTag      string   `validate:"omitempty,min=2"`
}

func ptr(f float64) *float64 { return &f }

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return one shared instance")
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input sampleRequest
	}{
		{name: "minimal", input: sampleRequest{Action: "login"}},
		{name: "all fields", input: sampleRequest{
			Action: "invoice_create", TimeFilter: "week", Limit: 1000,
			Lat: ptr(30.04), Lng: ptr(31.23), Note: "hello", NoTag: "ok",
		}},
		{name: "coordinate bounds", input: sampleRequest{Action: "page_view", Lat: ptr(-90), Lng: ptr(180)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := ValidateStruct(&tt.input); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     sampleRequest
		wantField string
		wantTag   string
	}{
		{name: "missing action", input: sampleRequest{}, wantField: "action", wantTag: "required"},
		{name: "unknown action", input: sampleRequest{Action: "teleport"}, wantField: "action", wantTag: "activity_action"},
		{name: "bad time filter", input: sampleRequest{Action: "login", TimeFilter: "decade"}, wantField: "time_filter", wantTag: "time_filter"},
		{name: "limit too high", input: sampleRequest{Action: "login", Limit: 1001}, wantField: "limit", wantTag: "lte"},
		{name: "negative limit", input: sampleRequest{Action: "login", Limit: -1}, wantField: "limit", wantTag: "gte"},
		{name: "latitude out of range", input: sampleRequest{Action: "login", Lat: ptr(91)}, wantField: "lat", wantTag: "latitude"},
		{name: "longitude out of range", input: sampleRequest{Action: "login", Lng: ptr(-181)}, wantField: "lng", wantTag: "longitude"},
		{name: "json name with options", input: sampleRequest{Action: "login", Note: "too long"}, wantField: "note", wantTag: "max"},
		{name: "go name without json tag", input: sampleRequest{Action: "login", NoTag: "x"}, wantField: "NoTag", wantTag: "min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors (%v), want 1", len(errs), err)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("got %s/%s, want %s/%s", errs[0].Field(), errs[0].Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	t.Run("single", func(t *testing.T) {
		t.Parallel()

		apiErr := ValidateStruct(&sampleRequest{Action: "teleport"}).ToAPIError()
		if apiErr.Code != ErrorCode {
			t.Errorf("code = %q", apiErr.Code)
		}
		if apiErr.Message != "action must be a known activity action" {
			t.Errorf("message = %q", apiErr.Message)
		}
		if apiErr.Details["value"] != "teleport" {
			t.Errorf("details = %v", apiErr.Details)
		}
	})

	t.Run("multiple", func(t *testing.T) {
		t.Parallel()

		apiErr := ValidateStruct(&sampleRequest{Limit: 5000, TimeFilter: "decade"}).ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 3 {
			t.Fatalf("fields = %v, want 3 entries", apiErr.Details["fields"])
		}
		for _, want := range []string{"action:", "time_filter:", "limit:"} {
			if !strings.Contains(apiErr.Message, want) {
				t.Errorf("message %q missing %q", apiErr.Message, want)
			}
		}
	})
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input sampleRequest
		want  string
	}{
		{sampleRequest{}, "action is required"},
		{sampleRequest{Action: "login", Limit: 2000}, "limit must be less than or equal to 1000"},
		{sampleRequest{Action: "login", Note: "abcdefg"}, "note must be at most 5 characters"},
		{sampleRequest{Action: "login", Lat: ptr(100)}, "lat must be a valid latitude (-90 to 90)"},
	}

	for _, tt := range tests {
		if got := ValidateStruct(&tt.input).Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
