// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "this_is_a_very_long_secret_key_for_testing_purposes_12345"

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func TestNewParser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		secret   string
		wantErr  bool
		verified bool
	}{
		{name: "unverified", secret: ""},
		{name: "verified", secret: testSecret, verified: true},
		{name: "short secret", secret: "short", wantErr: true},
	}
	for _, tt := range tests {
		p, err := NewParser(tt.secret)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: NewParser() error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && p.Verified() != tt.verified {
			t.Errorf("%s: Verified() = %v, want %v", tt.name, p.Verified(), tt.verified)
		}
	}
}

func TestParser_Unverified(t *testing.T) {
	t.Parallel()

	p, _ := NewParser("")
	token := signToken(t, "some-other-backend-secret-that-we-do-not-know", &Claims{
		UserID:   "u-7",
		UserName: "Amira Ben Salah",
		Role:     "sales_rep",
	})

	claims, err := p.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := Identity{UserID: "u-7", UserName: "Amira Ben Salah", UserRole: "sales_rep"}
	if got := claims.Identity(); got != want {
		t.Errorf("Identity() = %+v, want %+v", got, want)
	}

	if _, err := p.Parse("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse(garbage) error = %v, want ErrInvalidToken", err)
	}
	if _, err := p.Parse(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("Parse(\"\") error = %v, want ErrMissingToken", err)
	}
}

func TestParser_Verified(t *testing.T) {
	t.Parallel()

	p, err := NewParser(testSecret)
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}

	valid := signToken(t, testSecret, &Claims{
		Name: "Karim",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	claims, err := p.Parse(valid)
	if err != nil {
		t.Fatalf("Parse(valid) error = %v", err)
	}
	if id := claims.Identity(); id.UserID != "u-1" || id.UserName != "Karim" {
		t.Errorf("Identity() = %+v", id)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signToken(t, "another_secret_that_is_long_enough_for_hs256", &Claims{UserID: "u"})},
		{"expired", signToken(t, testSecret, &Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}})},
	}
	for _, tt := range tests {
		if _, err := p.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: Parse() error = %v, want ErrInvalidToken", tt.name, err)
		}
	}
}

func TestClaimsIdentityFallbacks(t *testing.T) {
	t.Parallel()

	c := &Claims{
		ID:                "42",
		PreferredUsername: "nour",
		RegisteredClaims:  jwt.RegisteredClaims{Subject: "sub-1"},
	}
	got := c.Identity()
	if got.UserID != "42" || got.UserName != "nour" || got.UserRole != "" {
		t.Errorf("Identity() = %+v", got)
	}
	if got.IsZero() {
		t.Error("IsZero() = true for populated identity")
	}
	if !(Identity{}).IsZero() {
		t.Error("IsZero() = false for empty identity")
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"bearer   tok  ", "tok", nil},
		{"", "", ErrMissingToken},
		{"Basic dXNlcjpwYXNz", "", ErrInvalidToken},
		{"Bearer", "", ErrInvalidToken},
	}
	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if got != tt.want || !errors.Is(err, tt.wantErr) {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, err, tt.want, tt.wantErr)
		}
	}
}
