// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package validation provides struct validation for gateway request bodies
// using go-playground/validator v10.
//
// A single validator instance is built once and shared; it caches struct
// metadata and is safe for concurrent use. Field names in errors are taken
// from the json tag so messages match what the client sent:
//
//	type PositionRequest struct {
//	    Lat      *float64 `json:"lat" validate:"required_without=Error,omitempty,latitude"`
//	    Accuracy float64  `json:"accuracy" validate:"gte=0"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // respond 400 with apiErr
//	}
//
// # Custom Tags
//
//   - activity_action: the value is one of the known activity actions
//   - time_filter: the value is a collection backend time window
//     ("", today, yesterday, week, month, all)
//
// # Error Format
//
// ToAPIError produces a VALIDATION_ERROR with the single field in details,
// or a "fields" list when several fields fail:
//
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "action must be a known activity action",
//	    "details": {"field": "action", "tag": "activity_action", "value": "teleport"}
//	}
package validation
