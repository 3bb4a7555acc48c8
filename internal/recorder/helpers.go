// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package recorder

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/tomtom215/fieldpulse/internal/models"
)

// LoginInfo describes a login attempt.
type LoginInfo struct {
	Method         string // "password", "sso", ...
	FailedAttempts int
	RememberMe     bool
	Failed         bool
	Email          string
}

// LogoutInfo describes a logout.
type LogoutInfo struct {
	Reason string // "user", "timeout", ...
}

// Clinic is a registered clinic.
type Clinic struct {
	Name       string
	Type       string
	City       string
	DoctorName string
	Phone      string
	Email      string
	Address    string
}

// Visit is a field visit to a clinic.
type Visit struct {
	ClinicName  string
	Type        string
	Products    []string
	Notes       string
	ScheduledAt time.Time
}

// LineItem is one invoice or order line.
type LineItem struct {
	Product   string
	Quantity  int
	UnitPrice float64
}

// Invoice is an issued invoice.
type Invoice struct {
	Number     string
	ClinicName string
	Amount     float64
	Currency   string
	Items      []LineItem
	DueDate    time.Time
}

// Order is a product order.
type Order struct {
	Number      string
	ClinicName  string
	TotalAmount float64
	Items       []LineItem
	Notes       string
}

// NewUser is a user created by an administrator.
type NewUser struct {
	Name   string
	Role   string
	Region string
	Email  string
	Phone  string
}

// PageView is a screen visit.
type PageView struct {
	Page     string
	Referrer string
	Title    string
}

// Payment is a payment collected against an invoice.
type Payment struct {
	InvoiceNumber string
	Amount        float64
	Method        string
	Reference     string
}

// Debt is an outstanding clinic debt.
type Debt struct {
	ClinicName string
	Amount     float64
	DueDate    time.Time
	Notes      string
}

// Product is a catalog product.
type Product struct {
	Name     string
	Category string
	Price    float64
	SKU      string
	Stock    int
}

// Settings describes a settings change.
type Settings struct {
	Section     string
	ChangedKeys []string
	Values      map[string]any
}

// RecordLogin records a login attempt. failed_attempts is only included
// when positive.
func (r *Recorder) RecordLogin(ctx context.Context, in LoginInfo) *models.ActivityEvent {
	details := map[string]any{
		"login_method": in.Method,
		"remember_me":  in.RememberMe,
	}
	if in.FailedAttempts > 0 {
		details["failed_attempts"] = in.FailedAttempts
	}
	desc := "User logged in"
	if in.Failed {
		desc = "Failed login attempt"
	}
	return r.Record(ctx, Partial{
		Action:      models.ActionLogin,
		Description: desc,
		Success:     models.Bool(!in.Failed),
		Details:     details,
	})
}

// RecordLogout records a logout.
func (r *Recorder) RecordLogout(ctx context.Context, in LogoutInfo) *models.ActivityEvent {
	return r.Record(ctx, Partial{
		Action:      models.ActionLogout,
		Description: "User logged out",
		Details:     map[string]any{"reason": in.Reason},
	})
}

// RecordClinicCreate records a clinic registration.
func (r *Recorder) RecordClinicCreate(ctx context.Context, in Clinic) *models.ActivityEvent {
	return r.Record(ctx, Partial{
		Action:      models.ActionClinicCreate,
		Description: fmt.Sprintf("Created clinic %s", in.Name),
		Details: map[string]any{
			"clinic_name": in.Name,
			"clinic_type": in.Type,
			"city":        in.City,
			"doctor_name": in.DoctorName,
		},
	})
}

// RecordVisitCreate records a clinic visit. Notes are summarized by length.
func (r *Recorder) RecordVisitCreate(ctx context.Context, in Visit) *models.ActivityEvent {
	products := append([]string(nil), in.Products...)
	if products == nil {
		products = []string{}
	}
	return r.Record(ctx, Partial{
		Action:      models.ActionVisitCreate,
		Description: fmt.Sprintf("Visited clinic %s", in.ClinicName),
		Details: map[string]any{
			"clinic_name":  in.ClinicName,
			"visit_type":   in.Type,
			"products":     products,
			"notes_length": utf8.RuneCountInString(in.Notes),
		},
	})
}

// RecordInvoiceCreate records an invoice.
func (r *Recorder) RecordInvoiceCreate(ctx context.Context, in Invoice) *models.ActivityEvent {
	return r.Record(ctx, Partial{
		Action:      models.ActionInvoiceCreate,
		Description: fmt.Sprintf("Created invoice %s for %s", in.Number, in.ClinicName),
		Details: map[string]any{
			"invoice_number": in.Number,
			"clinic_name":    in.ClinicName,
			"amount":         in.Amount,
			"currency":       in.Currency,
			"items_count":    len(in.Items),
		},
	})
}

// RecordOrderCreate records an order.
func (r *Recorder) RecordOrderCreate(ctx context.Context, in Order) *models.ActivityEvent {
	return r.Record(ctx, Partial{
		Action:      models.ActionOrderCreate,
		Description: fmt.Sprintf("Created order %s for %s", in.Number, in.ClinicName),
		Details: map[string]any{
			"order_number": in.Number,
			"clinic_name":  in.ClinicName,
			"total_amount": in.TotalAmount,
			"items_count":  len(in.Items),
		},
	})
}

// RecordUserCreate records a user account creation.
func (r *Recorder) RecordUserCreate(ctx context.Context, in NewUser) *models.ActivityEvent {
	return r.Record(ctx, Partial{
		Action:      models.ActionUserCreate,
		Description: fmt.Sprintf("Created user %s", in.Name),
		Details: map[string]any{
			"new_user_name": in.Name,
			"new_user_role": in.Role,
			"region":        in.Region,
		},
	})
}

// RecordPageView records a page visit.
func (r *Recorder) RecordPageView(ctx context.Context, in PageView) *models.ActivityEvent {
	return r.Record(ctx, Partial{
		Action:      models.ActionPageView,
		Description: fmt.Sprintf("Viewed %s", in.Page),
		Details: map[string]any{
			"page":     in.Page,
			"referrer": in.Referrer,
			"title":    in.Title,
		},
	})
}

// RecordPaymentCreate records a collected payment.
func (r *Recorder) RecordPaymentCreate(ctx context.Context, in Payment) *models.ActivityEvent {
	return r.Record(ctx, Partial{
		Action:      models.ActionPaymentCreate,
		Description: fmt.Sprintf("Recorded payment for invoice %s", in.InvoiceNumber),
		Details: map[string]any{
			"invoice_number": in.InvoiceNumber,
			"amount":         in.Amount,
			"method":         in.Method,
		},
	})
}

// RecordDebtCreate records a clinic debt. due_date is a calendar date,
// empty when unset.
func (r *Recorder) RecordDebtCreate(ctx context.Context, in Debt) *models.ActivityEvent {
	due := ""
	if !in.DueDate.IsZero() {
		due = in.DueDate.Format(time.DateOnly)
	}
	return r.Record(ctx, Partial{
		Action:      models.ActionDebtCreate,
		Description: fmt.Sprintf("Registered debt for %s", in.ClinicName),
		Details: map[string]any{
			"clinic_name": in.ClinicName,
			"amount":      in.Amount,
			"due_date":    due,
		},
	})
}

// RecordProductCreate records a catalog product.
func (r *Recorder) RecordProductCreate(ctx context.Context, in Product) *models.ActivityEvent {
	return r.Record(ctx, Partial{
		Action:      models.ActionProductCreate,
		Description: fmt.Sprintf("Created product %s", in.Name),
		Details: map[string]any{
			"product_name": in.Name,
			"category":     in.Category,
			"price":        in.Price,
		},
	})
}

// RecordSettingsUpdate records a settings change. Only the changed key
// names are recorded, never their values.
func (r *Recorder) RecordSettingsUpdate(ctx context.Context, in Settings) *models.ActivityEvent {
	keys := append([]string(nil), in.ChangedKeys...)
	if keys == nil {
		keys = []string{}
	}
	return r.Record(ctx, Partial{
		Action:      models.ActionSettingsUpdate,
		Description: fmt.Sprintf("Updated %s settings", in.Section),
		Details: map[string]any{
			"section":      in.Section,
			"changed_keys": keys,
		},
	})
}
