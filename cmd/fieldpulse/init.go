// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/fieldpulse/internal/collector"
	"github.com/tomtom215/fieldpulse/internal/config"
	"github.com/tomtom215/fieldpulse/internal/eventbus"
	"github.com/tomtom215/fieldpulse/internal/logging"
	"github.com/tomtom215/fieldpulse/internal/models"
	"github.com/tomtom215/fieldpulse/internal/outbox"
	"github.com/tomtom215/fieldpulse/internal/supervisor"
	ws "github.com/tomtom215/fieldpulse/internal/websocket"
)

// initEventBus creates the bus and subscribes the live feed to it.
func initEventBus(cfg *config.Config, tree *supervisor.SupervisorTree, hub *ws.Hub) (*eventbus.Bus, error) {
	bus, err := eventbus.New(cfg.Bus, eventbus.NewLoggerAdapter())
	if err != nil {
		return nil, err
	}
	if bus.NATSEnabled() {
		logging.Info().Str("subject", cfg.Bus.Subject).Msg("Publishing recorded events to NATS")
	}
	tree.AddMessagingService(eventbus.NewConsumer(bus, "activity-feed", hub.HandleActivity))
	return bus, nil
}

// initOutbox opens the outbox and starts its retrier. It returns nil when
// the outbox is disabled.
func initOutbox(cfg *config.Config, tree *supervisor.SupervisorTree, client *collector.Client, bus *eventbus.Bus) (*outbox.Outbox, error) {
	if !cfg.Outbox.Enabled {
		logging.Info().Msg("Outbox disabled (OUTBOX_ENABLED=false)")
		return nil, nil
	}

	box, err := outbox.Open(cfg.Outbox)
	if err != nil {
		return nil, fmt.Errorf("open outbox at %s: %w", cfg.Outbox.Path, err)
	}
	logging.Info().Str("path", cfg.Outbox.Path).Int("pending", box.Len()).Msg("Outbox opened")

	onDeliver := func(ctx context.Context, ev *models.ActivityEvent) {
		if err := bus.Publish(ctx, ev); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("event_id", ev.EventID).Msg("Failed to publish delivered event")
		}
	}
	tree.AddStorageService(outbox.NewRetrier(box, client, cfg.Outbox, onDeliver))
	return box, nil
}
