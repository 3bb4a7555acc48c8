// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

/*
Package auth extracts the caller identity from a bearer credential.

FieldPulse does not issue or store credentials. The CRM front end already
holds a bearer token from its own backend; FieldPulse reads the actor
identity (user id, name, role) from the token's claims and forwards the
token unchanged to the collection endpoint.

Two modes are supported:

  - Unverified (default): claims are decoded without checking the
    signature. The collection backend remains the authority that accepts
    or rejects the credential.
  - Verified: when security.jwt_secret is configured, tokens must carry a
    valid HS256 signature and unexpired claims; invalid tokens are
    rejected with 401.

Example:

	parser, err := auth.NewParser(cfg.Security.JWTSecret)
	mw := auth.NewMiddleware(parser)
	r.Use(mw.Identify)
	...
	cred, ok := auth.CredentialFromContext(r.Context())
*/
package auth
