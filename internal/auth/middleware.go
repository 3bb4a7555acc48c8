// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/fieldpulse/internal/logging"
)

type contextKey string

const credentialContextKey contextKey = "credential"

// Credential is the bearer token of the current request and the identity
// read from it.
type Credential struct {
	Token    string
	Identity Identity
}

// ContextWithCredential stores c in ctx.
func ContextWithCredential(ctx context.Context, c Credential) context.Context {
	return context.WithValue(ctx, credentialContextKey, c)
}

// CredentialFromContext returns the credential stored by Identify.
func CredentialFromContext(ctx context.Context) (Credential, bool) {
	c, ok := ctx.Value(credentialContextKey).(Credential)
	return c, ok
}

// Middleware attaches caller credentials to requests.
type Middleware struct {
	parser *Parser
}

// NewMiddleware creates the middleware around parser.
func NewMiddleware(parser *Parser) *Middleware {
	return &Middleware{parser: parser}
}

// Identify reads the bearer credential when one is present. Requests
// without a credential pass through anonymously. In verified mode a
// present but invalid token is rejected with 401; in unverified mode an
// undecodable token is still forwarded, without identity.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := BearerToken(header)
		if err != nil {
			http.Error(w, "Unauthorized: invalid authorization header", http.StatusUnauthorized)
			return
		}

		cred := Credential{Token: token}
		claims, err := m.parser.Parse(token)
		switch {
		case err == nil:
			cred.Identity = claims.Identity()
		case m.parser.Verified():
			logging.Ctx(r.Context()).Warn().Err(err).Msg("token validation failed")
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		case errors.Is(err, ErrInvalidToken):
			logging.Ctx(r.Context()).Debug().Err(err).Msg("bearer token carries no readable claims")
		}

		next.ServeHTTP(w, r.WithContext(ContextWithCredential(r.Context(), cred)))
	})
}

// SecurityHeaders adds security headers to all responses. Geolocation is
// allowed for the same origin because the front end posts positions.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if r.Header.Get("X-Forwarded-Proto") == "https" || r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		w.Header().Set("Permissions-Policy", "geolocation=(self), microphone=(), camera=()")
		next.ServeHTTP(w, r)
	})
}
