// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package main is the entry point for the FieldPulse gateway.
//
// FieldPulse records sales-team activity (logins, clinic visits, orders,
// payments) with device, session, network and location context, forwards
// each event to the activity collection backend, and serves an analytics
// dashboard with suspicious-activity detection and a live WebSocket feed.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config.yaml and environment (Koanf v2)
//  2. Collector client: circuit-breaker protected backend access
//  3. Session registry: per-session position trackers
//  4. Outbox (optional): BadgerDB buffer for failed transmissions
//  5. Event bus: in-process fan-out, optionally mirrored to NATS
//  6. Recorder and dashboard refresher
//  7. HTTP server: REST API, WebSocket feed, health and metrics
//
// All long-running components run under a suture supervisor tree.
//
// # Configuration
//
// Common environment variables:
//   - COLLECTOR_BASE_URL: activity backend, e.g. https://crm.example.com/api
//   - JWT_SECRET: verify bearer tokens with HS256 (32+ characters)
//   - OUTBOX_ENABLED, OUTBOX_PATH: buffer failed events on disk
//   - NATS_URL: mirror recorded events to NATS
//   - TRUSTED_PROXIES: reverse proxies allowed to set X-Forwarded-For
//   - HTTP_PORT: listener port (default 8088)
//
// # Signal Handling
//
// SIGINT and SIGTERM stop the supervisor tree. In-flight async recordings
// are awaited before the outbox and the bus are closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/fieldpulse/internal/api"
	"github.com/tomtom215/fieldpulse/internal/auth"
	"github.com/tomtom215/fieldpulse/internal/collector"
	"github.com/tomtom215/fieldpulse/internal/config"
	"github.com/tomtom215/fieldpulse/internal/dashboard"
	"github.com/tomtom215/fieldpulse/internal/geo"
	"github.com/tomtom215/fieldpulse/internal/logging"
	"github.com/tomtom215/fieldpulse/internal/netid"
	"github.com/tomtom215/fieldpulse/internal/recorder"
	"github.com/tomtom215/fieldpulse/internal/supervisor"
	"github.com/tomtom215/fieldpulse/internal/supervisor/services"
	ws "github.com/tomtom215/fieldpulse/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("collector", cfg.Collector.BaseURL).Msg("Starting FieldPulse")

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	client := collector.New(cfg.Collector)

	registry := geo.NewRegistry(geo.TrackerConfig{
		PositionTimeout: cfg.Geo.PositionTimeout,
		WatchTimeout:    cfg.Geo.WatchTimeout,
	}, cfg.Geo.IdleTTL, cfg.Geo.SweepInterval)
	tree.AddStorageService(services.NewNamedService(registry, "session-registry"))

	hub := ws.NewHub()
	tree.AddMessagingService(hub)

	bus, err := initEventBus(cfg, tree, hub)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event bus")
	}

	box, err := initOutbox(cfg, tree, client, bus)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open outbox")
	}

	opts := []recorder.Option{
		recorder.WithPositions(registry),
		recorder.WithPublisher(bus),
	}
	if cfg.Resolver.Enabled {
		opts = append(opts, recorder.WithResolver(netid.New(cfg.Resolver)))
	}
	if box != nil {
		opts = append(opts, recorder.WithSpooler(box))
	}
	rec := recorder.New(nil, client, opts...)

	refresher, err := dashboard.NewRefresher(client, cfg.Dashboard, dashboard.WithBroadcaster(hub))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create dashboard refresher")
	}
	tree.AddMessagingService(refresher)

	parser, err := auth.NewParser(cfg.Security.JWTSecret)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create token parser")
	}
	if !parser.Verified() {
		logging.Warn().Msg("JWT_SECRET not set: bearer tokens are forwarded without signature verification")
	}

	proxies, err := netid.NewTrustedProxies(cfg.Security.TrustedProxies)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid trusted proxies")
	}

	handler := api.NewHandler(api.Dependencies{
		Recorder:    rec,
		Positions:   registry,
		Snapshots:   refresher,
		Hub:         hub,
		CORSOrigins: cfg.Security.CORSOrigins,
		Checks:      readinessChecks(client, refresher),
		Proxies:     proxies,
	})
	router := api.NewRouter(handler, auth.NewMiddleware(parser),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security)))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	rec.Wait()
	registry.StopAll()
	if box != nil {
		if err := box.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close outbox")
		}
	}
	if err := bus.Close(); err != nil {
		logging.Error().Err(err).Msg("Failed to close event bus")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// readinessChecks probes the collector breaker and the dashboard cache.
func readinessChecks(client *collector.Client, refresher *dashboard.Refresher) []api.ReadinessCheck {
	return []api.ReadinessCheck{
		{
			Name: "collector",
			Check: func(context.Context) error {
				if state := client.BreakerState(); state == "open" {
					return fmt.Errorf("circuit breaker %s", state)
				}
				return nil
			},
		},
		{
			Name: "dashboard",
			Check: func(context.Context) error {
				if _, ok := refresher.Snapshot(); !ok {
					return errors.New("no snapshot built yet")
				}
				return nil
			},
		},
	}
}
