// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package session carries the per-browser-session identifier used to
// correlate login and logout events.
package session

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Header is the request header carrying an existing session id.
const Header = "X-Session-ID"

const maxIDLength = 128

// Context holds one session identifier. The id is generated on first
// access and never changes afterwards; concurrent first accesses converge
// on the same value.
type Context struct {
	once  sync.Once
	id    string
	newID func() string
}

// New returns a context whose id is generated lazily.
func New() *Context {
	return &Context{newID: uuid.NewString}
}

// WithID returns a context bound to an existing id. An empty or invalid
// id falls back to lazy generation.
func WithID(id string) *Context {
	c := New()
	if id = strings.TrimSpace(id); validID(id) {
		c.once.Do(func() { c.id = id })
	}
	return c
}

// ID returns the session id, creating it on first call.
func (c *Context) ID() string {
	c.once.Do(func() { c.id = c.newID() })
	return c.id
}

// FromRequest returns the session named by the X-Session-ID header, or a
// fresh session when the header is absent.
func FromRequest(r *http.Request) *Context {
	return WithID(r.Header.Get(Header))
}

func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

type ctxKey struct{}

// NewContext stores s in ctx.
func NewContext(ctx context.Context, s *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (*Context, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Context)
	return s, ok && s != nil
}
