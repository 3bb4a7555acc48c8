// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/fieldpulse/internal/config"
	"github.com/tomtom215/fieldpulse/internal/metrics"
	"github.com/tomtom215/fieldpulse/internal/models"
)

// TopicActivityRecorded carries every successfully recorded event.
const TopicActivityRecorded = "activity.recorded"

// Metadata keys set on published messages.
const (
	MetadataAction    = "action"
	MetadataSessionID = "session_id"
)

// ErrClosed is returned when publishing to a closed bus.
var ErrClosed = errors.New("event bus is closed")

const (
	transportLocal = "local"
	transportNATS  = "nats"

	outputBuffer = 64
)

// Bus publishes recorded events.
type Bus struct {
	local   *gochannel.GoChannel
	nats    message.Publisher
	subject string
	logger  watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// New creates the in-process bus and, when cfg.NATSURL is set, the NATS
// publisher. logger may be nil.
func New(cfg config.BusConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = NewLoggerAdapter()
	}
	b := &Bus{
		local: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: outputBuffer,
		}, logger),
		subject: cfg.Subject,
		logger:  logger,
	}

	if cfg.NATSURL != "" {
		pub, err := newNATSPublisher(cfg.NATSURL, logger)
		if err != nil {
			_ = b.local.Close()
			return nil, err
		}
		b.nats = pub
		if b.subject == "" {
			b.subject = TopicActivityRecorded
		}
		logger.Info("NATS fan-out enabled", watermill.LogFields{"subject": b.subject})
	}
	return b, nil
}

// newNATSPublisher publishes on core NATS. JetStream stays disabled: the
// fan-out is best effort and durability lives in the collector.
func newNATSPublisher(url string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("fieldpulse"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	return pub, nil
}

// NewMessage encodes ev as a Watermill message.
func NewMessage(ev *models.ActivityEvent) (*message.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	id := ev.EventID
	if id == "" {
		id = uuid.NewString()
	}
	msg := message.NewMessage(id, payload)
	msg.Metadata.Set(MetadataAction, string(ev.Action))
	if ev.SessionID != "" {
		msg.Metadata.Set(MetadataSessionID, ev.SessionID)
	}
	return msg, nil
}

// DecodeEvent decodes a message produced by NewMessage.
func DecodeEvent(msg *message.Message) (*models.ActivityEvent, error) {
	var ev models.ActivityEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}
	return &ev, nil
}

// Publish announces ev to local subscribers and to NATS when enabled.
func (b *Bus) Publish(ctx context.Context, ev *models.ActivityEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	msg, err := NewMessage(ev)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)

	localErr := b.local.Publish(TopicActivityRecorded, msg)
	metrics.RecordBusPublish(transportLocal, localErr)

	var natsErr error
	if b.nats != nil {
		natsErr = b.nats.Publish(b.subject, msg.Copy())
		metrics.RecordBusPublish(transportNATS, natsErr)
		if natsErr != nil {
			natsErr = fmt.Errorf("publish to NATS: %w", natsErr)
		}
	}
	return errors.Join(localErr, natsErr)
}

// Subscribe returns the local message stream of TopicActivityRecorded.
// Every message must be acked or nacked.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.local.Subscribe(ctx, TopicActivityRecorded)
}

// NATSEnabled reports whether events are also fanned out to NATS.
func (b *Bus) NATSEnabled() bool {
	return b.nats != nil
}

// Close closes both transports.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if b.nats != nil {
		if err := b.nats.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close NATS publisher: %w", err))
		}
	}
	if err := b.local.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close local pubsub: %w", err))
	}
	return errors.Join(errs...)
}
