// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package eventbus

import (
	"context"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/fieldpulse/internal/logging"
	"github.com/tomtom215/fieldpulse/internal/models"
)

// Handler processes one recorded event. A returned error is logged; it
// never stops the consumer.
type Handler func(ctx context.Context, ev *models.ActivityEvent) error

// Consumer feeds local bus messages to a Handler. It implements
// suture.Service.
type Consumer struct {
	bus    *Bus
	name   string
	handle Handler
}

// NewConsumer creates a named consumer.
func NewConsumer(bus *Bus, name string, handle Handler) *Consumer {
	return &Consumer{bus: bus, name: name, handle: handle}
}

// Serve consumes until ctx is canceled or the bus is closed.
func (c *Consumer) Serve(ctx context.Context) error {
	messages, err := c.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	log := logging.WithComponent(c.name)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Bus closed during shutdown.
				return suture.ErrDoNotRestart
			}
			ev, err := DecodeEvent(msg)
			if err != nil {
				log.Warn().Err(err).Msg("dropping undecodable bus message")
				msg.Ack()
				continue
			}
			if err := c.handle(ctx, ev); err != nil {
				log.Warn().Err(err).Str("event_id", ev.EventID).Msg("bus handler failed")
			}
			// Live fan-out has no redelivery.
			msg.Ack()
		}
	}
}

func (c *Consumer) String() string { return c.name }
