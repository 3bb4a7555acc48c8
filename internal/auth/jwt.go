// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum HS256 secret length accepted.
const MinSecretLength = 32

var (
	// ErrMissingToken is returned when no bearer credential is present.
	ErrMissingToken = errors.New("auth: missing bearer token")
	// ErrInvalidToken is returned for malformed or unverifiable tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Claims are the identity claims read from the CRM token. Both the CRM's
// camelCase names and the common OIDC names are accepted.
type Claims struct {
	UserID            string `json:"userId,omitempty"`
	ID                string `json:"id,omitempty"`
	Name              string `json:"name,omitempty"`
	UserName          string `json:"userName,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Role              string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the actor recorded on an activity event.
type Identity struct {
	UserID   string
	UserName string
	UserRole string
}

// IsZero reports whether no identity field is set.
func (i Identity) IsZero() bool {
	return i.UserID == "" && i.UserName == "" && i.UserRole == ""
}

// Identity resolves the actor from c, preferring the CRM claim names.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:   firstNonEmpty(c.UserID, c.ID, c.Subject),
		UserName: firstNonEmpty(c.UserName, c.Name, c.PreferredUsername),
		UserRole: c.Role,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Parser reads identity claims from bearer tokens.
type Parser struct {
	secret []byte
	parser *jwt.Parser
}

// NewParser creates a parser. An empty secret selects unverified mode;
// a non-empty secret shorter than MinSecretLength is rejected.
func NewParser(secret string) (*Parser, error) {
	if secret != "" && len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)
	}
	p := &Parser{parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))}
	if secret != "" {
		p.secret = []byte(secret)
	}
	return p, nil
}

// Verified reports whether signatures are checked.
func (p *Parser) Verified() bool { return p.secret != nil }

// Parse decodes token into claims, verifying it when a secret is set.
func (p *Parser) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	if !p.Verified() {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
		return claims, nil
	}

	parsed, err := p.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return strings.TrimSpace(token), nil
}
