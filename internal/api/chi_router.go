// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/fieldpulse/internal/auth"
	"github.com/tomtom215/fieldpulse/internal/middleware"
)

// Router sets up HTTP routes using the chi router.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates the router. A nil authMiddleware leaves requests
// anonymous; a nil chiMiddleware uses the defaults.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware, chiMiddleware *ChiMiddleware) *Router {
	if chiMiddleware == nil {
		chiMiddleware = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, auth: authMiddleware, chiMiddleware: chiMiddleware}
}

func (router *Router) identify(next http.Handler) http.Handler {
	if router.auth == nil {
		return next
	}
	return router.auth.Identify(next)
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP(router.handler.proxies))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.SecurityHeaders)
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.identify)
		r.Use(middleware.Session)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Post("/track", router.handler.Track)
			r.Get("/analytics/snapshot", router.handler.AnalyticsSnapshot)
			r.Get("/analytics/suspicious", router.handler.AnalyticsSuspicious)
			r.Get("/ws", router.handler.WebSocket)
		})

		// Watch updates arrive far more often than user actions.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitPositions())
			r.Post("/sessions/{sessionID}/position", router.handler.ReportPosition)
			r.Get("/sessions/{sessionID}/position", router.handler.GetPosition)
			r.Delete("/sessions/{sessionID}", router.handler.EndSession)
		})
	})

	return r
}
