// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package ledger records which enrichment events are still in flight.
//
// The write path and the sweep record an (entry, version) pair after a
// successful publish; the worker resolves it once the outcome for that
// version is durable. The sweep consults the ledger so it does not republish
// an entry whose event is merely queued behind others on its partition.
//
// Records expire through Badger's TTL, so an event lost by the channel stops
// counting as outstanding once the TTL passes and the sweep picks the entry
// up. The ledger is advisory: a missing or stale record costs at most one
// duplicate event, which the worker discards.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/moodlog/internal/config"
	"github.com/tomtom215/moodlog/internal/logging"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("ledger is closed")

const keyPrefix = "outstanding:"

// record is the value stored per outstanding event.
type record struct {
	EntryID     string    `json:"entry_id"`
	Version     int64     `json:"version"`
	PublishedAt time.Time `json:"published_at"`
}

// Ledger is a Badger-backed set of outstanding (entry, version) pairs.
type Ledger struct {
	db     *badger.DB
	ttl    time.Duration
	ownsDB bool

	mu     sync.RWMutex
	closed bool
}

// Open opens the ledger described by cfg. ttl is how long a recorded event
// counts as outstanding.
func Open(cfg config.LedgerConfig, ttl time.Duration) (*Ledger, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(newBadgerLogger())

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger at %q: %w", cfg.Path, err)
	}
	l := New(db, ttl)
	l.ownsDB = true
	return l, nil
}

// New wraps an already open Badger database. The caller keeps ownership of db.
func New(db *badger.DB, ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Ledger{db: db, ttl: ttl}
}

// TTL returns the outstanding window.
func (l *Ledger) TTL() time.Duration {
	return l.ttl
}

func makeKey(entryID string, version int64) []byte {
	return []byte(keyPrefix + entryID + ":" + strconv.FormatInt(version, 10))
}

func (l *Ledger) checkOpen() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	return nil
}

// Record marks (entryID, version) as outstanding.
func (l *Ledger) Record(ctx context.Context, entryID string, version int64) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(record{EntryID: entryID, Version: version, PublishedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode ledger record: %w", err)
	}
	err = l.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(makeKey(entryID, version), data).WithTTL(l.ttl))
	})
	if err != nil {
		return fmt.Errorf("failed to record outstanding event %s@%d: %w", entryID, version, err)
	}
	return nil
}

// Resolve removes (entryID, version). Resolving an unknown pair is a no-op.
func (l *Ledger) Resolve(ctx context.Context, entryID string, version int64) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(makeKey(entryID, version))
	})
	if err != nil {
		return fmt.Errorf("failed to resolve outstanding event %s@%d: %w", entryID, version, err)
	}
	return nil
}

// IsOutstanding reports whether (entryID, version) was recorded, not yet
// resolved, and not yet expired.
func (l *Ledger) IsOutstanding(ctx context.Context, entryID string, version int64) (bool, error) {
	if err := l.checkOpen(); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var found bool
	err := l.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(makeKey(entryID, version))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check outstanding event %s@%d: %w", entryID, version, err)
	}
	return found, nil
}

// Count returns the number of live outstanding records.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	if err := l.checkOpen(); err != nil {
		return 0, err
	}

	count := 0
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

// RunGC rewrites value log files whose discardable share exceeds
// discardRatio until none qualifies. It is a no-op in memory.
func (l *Ledger) RunGC(discardRatio float64) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	if l.db.Opts().InMemory {
		return nil
	}
	for {
		err := l.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ledger value log GC: %w", err)
		}
	}
}

// Close closes the ledger. The underlying database is closed only if the
// ledger opened it.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.ownsDB {
		return l.db.Close()
	}
	return nil
}

// badgerLogger routes Badger's internal logging to zerolog. Info is demoted to
// debug; Badger is chatty at info level.
type badgerLogger struct{}

func newBadgerLogger() badger.Logger {
	return badgerLogger{}
}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Str("component", "ledger").Msgf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Str("component", "ledger").Msgf(format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Str("component", "ledger").Msgf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Str("component", "ledger").Msgf(format, args...)
}
