// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/fieldpulse/internal/config"
	"github.com/tomtom215/fieldpulse/internal/logging"
	"github.com/tomtom215/fieldpulse/internal/metrics"
	"github.com/tomtom215/fieldpulse/internal/models"
)

var (
	// ErrClosed is returned by operations on a closed outbox.
	ErrClosed = errors.New("outbox is closed")

	// ErrNotFound is returned when an entry does not exist.
	ErrNotFound = errors.New("outbox entry not found")

	// ErrNilEvent is returned when spooling a nil event.
	ErrNilEvent = errors.New("outbox: nil event")
)

const prefixPending = "pending:"

// Entry is one buffered event.
type Entry struct {
	ID            string               `json:"id"`
	Event         models.ActivityEvent `json:"event"`
	Token         string               `json:"token,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	Attempts      int                  `json:"attempts"`
	LastAttemptAt time.Time            `json:"last_attempt_at,omitempty"`
	NextAttemptAt time.Time            `json:"next_attempt_at"`
	LastError     string               `json:"last_error,omitempty"`
}

// Outbox stores failed transmissions in BadgerDB.
type Outbox struct {
	db  *badger.DB
	now func() time.Time

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the outbox at cfg.Path.
func Open(cfg config.OutboxConfig) (*Outbox, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("outbox path is required")
	}
	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	ob, err := open(opts)
	if err != nil {
		return nil, err
	}
	logging.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Int("pending", ob.Len()).
		Msg("Outbox opened")
	return ob, nil
}

// OpenInMemory opens a non-durable outbox. Used by tests.
func OpenInMemory() (*Outbox, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Outbox, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	ob := &Outbox{db: db, now: time.Now}
	ob.updateDepth()
	return ob, nil
}

func (o *Outbox) checkOpen() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrClosed
	}
	return nil
}

func entryKey(id string) []byte {
	return []byte(prefixPending + id)
}

// Spool buffers ev for a later retry. The entry is keyed by the event id,
// so spooling the same event twice keeps a single entry.
func (o *Outbox) Spool(ev *models.ActivityEvent, token string, cause error) error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	if ev == nil {
		return ErrNilEvent
	}
	if ev.EventID == "" {
		return fmt.Errorf("outbox: event has no id")
	}

	now := o.now().UTC()
	entry := Entry{
		ID:            ev.EventID,
		Event:         *ev,
		Token:         token,
		CreatedAt:     now,
		NextAttemptAt: now,
	}
	if cause != nil {
		entry.LastError = cause.Error()
	}

	data, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := o.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.ID), data)
	}); err != nil {
		return fmt.Errorf("write to BadgerDB: %w", err)
	}
	o.updateDepth()
	return nil
}

// Pending returns up to limit entries in key order. limit <= 0 returns all.
func (o *Outbox) Pending(ctx context.Context, limit int) ([]*Entry, error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}

	var entries []*Entry
	err := o.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var entry Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("Outbox failed to unmarshal entry")
				continue
			}
			entries = append(entries, &entry)
			if limit > 0 && len(entries) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate pending entries: %w", err)
	}
	return entries, nil
}

// Get returns one entry.
func (o *Outbox) Get(id string) (*Entry, error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}
	var entry Entry
	err := o.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateAttempt records a failed attempt and schedules the next one.
func (o *Outbox) UpdateAttempt(id, lastError string, next time.Time) error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	return o.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}

		var entry Entry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}

		entry.Attempts++
		entry.LastAttemptAt = o.now().UTC()
		entry.NextAttemptAt = next.UTC()
		entry.LastError = lastError

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		return txn.Set(entryKey(id), data)
	})
}

// Delete removes an entry, after delivery or when it is dropped.
func (o *Outbox) Delete(id string) error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	err := o.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(entryKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(entryKey(id))
	})
	if err != nil {
		return err
	}
	o.updateDepth()
	return nil
}

// Len returns the number of buffered entries, or 0 when closed.
func (o *Outbox) Len() int {
	if o.checkOpen() != nil {
		return 0
	}
	n := 0
	_ = o.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n
}

func (o *Outbox) updateDepth() {
	metrics.OutboxDepth.Set(float64(o.Len()))
}

// collectGarbage reclaims value log space. Badger reports ErrNoRewrite
// when there is nothing to collect.
func (o *Outbox) collectGarbage() {
	if o.checkOpen() != nil || o.db.Opts().InMemory {
		return
	}
	for {
		if err := o.db.RunValueLogGC(0.5); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				logging.Warn().Err(err).Msg("Outbox value log GC failed")
			}
			return
		}
	}
}

// Close closes the database. It is safe to call more than once.
func (o *Outbox) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	if err := o.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("Outbox closed")
	return nil
}
