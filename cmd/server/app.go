// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/moodlog/internal/cache"
	"github.com/tomtom215/moodlog/internal/config"
	"github.com/tomtom215/moodlog/internal/database"
	"github.com/tomtom215/moodlog/internal/enrichment"
	"github.com/tomtom215/moodlog/internal/journal"
	"github.com/tomtom215/moodlog/internal/ledger"
	"github.com/tomtom215/moodlog/internal/logging"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg       *config.Config
	db        *database.DB
	cache     *cache.Views
	ledger    *ledger.Ledger
	messaging *messaging
	journal   *journal.Service
}

// newApp opens the store, cache, ledger and channel. Close releases them in
// reverse order.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close(ctx)
		}
	}()

	a.db, err = database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("initialize entry store: %w", explainLock(err))
	}
	logging.Info().Str("path", cfg.Database.Path).Msg("Entry store opened")

	store, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("initialize cache: %w", err)
	}
	// The journal service and the worker invalidate through the same views.
	a.cache = cache.NewViews(store)
	if pingErr := a.cache.Ping(ctx); pingErr != nil {
		// Reads degrade to the store until the cache answers.
		logging.Warn().Err(pingErr).Str("backend", cfg.Cache.Backend).Msg("Cache not reachable at startup")
	}

	a.ledger, err = ledger.Open(cfg.Ledger, cfg.OutstandingTTL())
	if err != nil {
		return nil, fmt.Errorf("initialize ledger: %w", explainLock(err))
	}

	a.messaging, err = newMessaging(ctx, cfg.NATS)
	if err != nil {
		return nil, fmt.Errorf("initialize enrichment channel: %w", err)
	}

	a.journal = journal.NewService(a.db, a.cache, a.publisher("write"), journal.Config{
		CacheTTL:    cfg.Cache.TTL(),
		ListLimit:   database.DefaultListLimit,
		LoadTimeout: cfg.Database.QueryTimeout,
	})
	return a, nil
}

// publisher returns a ledger-tracking publisher counted under source.
func (a *app) publisher(source string) *enrichment.TrackingPublisher {
	return enrichment.NewTrackingPublisher(a.messaging.publisher.WithSource(source), a.ledger)
}

// errStoreLocked means another process, usually a running serve, holds the
// entry store or the ledger open. Both take an exclusive file lock.
var errStoreLocked = errors.New("store is locked by another process; stop serve before running entry or sweep")

func explainLock(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "Could not set lock on file") || strings.Contains(msg, "Cannot acquire directory lock") {
		return fmt.Errorf("%w: %w", errStoreLocked, err)
	}
	return err
}

// Close releases everything newApp opened.
func (a *app) Close(ctx context.Context) {
	var errs []error
	if a.messaging != nil {
		errs = append(errs, a.messaging.Close(ctx))
	}
	if a.ledger != nil {
		errs = append(errs, a.ledger.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logging.Error().Err(err).Msg("Error during shutdown")
	}
}
