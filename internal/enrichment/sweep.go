// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/moodlog/internal/eventprocessor"
	"github.com/tomtom215/moodlog/internal/logging"
	"github.com/tomtom215/moodlog/internal/metrics"
	"github.com/tomtom215/moodlog/internal/models"
)

// StaleLister pages through entries that have been PENDING since before a
// cutoff.
type StaleLister interface {
	ListStalePending(ctx context.Context, olderThan time.Time, after models.StaleCursor, limit int) ([]models.JournalEntry, error)
}

// SweepConfig configures a Sweeper.
type SweepConfig struct {
	Interval           time.Duration
	PendingThreshold   time.Duration
	// BatchSize caps republishes per pass and is also the page size. Rows
	// skipped as outstanding do not count toward it.
	BatchSize          int
	RepublishPerSecond float64
}

// SweepResult summarizes one pass.
type SweepResult struct {
	Scanned            int
	Republished        int
	SkippedOutstanding int
	Failed             int
	Duration           time.Duration
}

// Sweeper republishes events for entries stuck in PENDING. It implements
// suture.Service.
type Sweeper struct {
	store     StaleLister
	publisher eventprocessor.EventPublisher
	ledger    OutstandingLedger
	limiter   *rate.Limiter
	cfg       SweepConfig
	log       *logging.EnrichmentLogger
	now       func() time.Time
}

// NewSweeper creates a sweeper. ledger may be nil, in which case every stale
// entry is republished and the worker discards the duplicates.
func NewSweeper(store StaleLister, publisher eventprocessor.EventPublisher, ledger OutstandingLedger, cfg SweepConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.PendingThreshold <= 0 {
		cfg.PendingThreshold = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}

	limit := rate.Inf
	burst := 1
	if cfg.RepublishPerSecond > 0 {
		limit = rate.Limit(cfg.RepublishPerSecond)
		burst = int(cfg.RepublishPerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	return &Sweeper{
		store:     store,
		publisher: publisher,
		ledger:    ledger,
		limiter:   rate.NewLimiter(limit, burst),
		cfg:       cfg,
		log:       logging.NewEnrichmentLogger(),
		now:       time.Now,
	}
}

// String implements fmt.Stringer for suture logging.
func (s *Sweeper) String() string {
	return "reconciliation-sweep"
}

// Serve runs a pass every Interval until ctx is canceled.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			passCtx := logging.ContextWithNewCorrelationID(ctx)
			if _, err := s.RunOnce(passCtx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Ctx(passCtx).Error().Err(err).Msg("Reconciliation sweep failed")
			}
		}
	}
}

// RunOnce performs one pass. It pages through stale entries until BatchSize
// events have been republished or no rows remain. Running it twice in a row
// republishes nothing new while the first pass's events are outstanding.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	var res SweepResult

	cutoff := s.now().Add(-s.cfg.PendingThreshold)
	var after models.StaleCursor
	for res.Republished < s.cfg.BatchSize {
		page, err := s.store.ListStalePending(ctx, cutoff, after, s.cfg.BatchSize)
		if err != nil {
			err = fmt.Errorf("list stale pending entries: %w", err)
			res.Duration = time.Since(start)
			metrics.RecordSweep(res.Duration, res.Republished, res.SkippedOutstanding, err)
			return res, err
		}

		for i := range page {
			if res.Republished >= s.cfg.BatchSize {
				break
			}
			entry := &page[i]
			res.Scanned++

			if s.isOutstanding(ctx, entry) {
				res.SkippedOutstanding++
				continue
			}

			if err := s.limiter.Wait(ctx); err != nil {
				res.Duration = time.Since(start)
				metrics.RecordSweep(res.Duration, res.Republished, res.SkippedOutstanding, err)
				return res, err
			}

			event := models.NewEnrichmentEvent(entry, s.now())
			if err := s.publisher.PublishEnrichment(ctx, event); err != nil {
				res.Failed++
				logging.Ctx(ctx).Warn().
					Err(err).
					Str("entry_id", entry.ID).
					Int64("version", entry.Version).
					Msg("Sweep republish failed")
				continue
			}
			res.Republished++
			s.log.LogRepublished(ctx, entry.ID, entry.Version, s.now().Sub(entry.UpdatedAt))
		}

		if len(page) < s.cfg.BatchSize {
			break
		}
		after = models.CursorAt(&page[len(page)-1])
	}

	res.Duration = time.Since(start)
	s.log.LogSweepCompleted(ctx, res.Scanned, res.Republished, res.SkippedOutstanding, res.Failed, res.Duration)
	metrics.RecordSweep(res.Duration, res.Republished, res.SkippedOutstanding, nil)
	return res, nil
}

// isOutstanding treats ledger errors as not outstanding.
func (s *Sweeper) isOutstanding(ctx context.Context, entry *models.JournalEntry) bool {
	if s.ledger == nil {
		return false
	}
	ok, err := s.ledger.IsOutstanding(ctx, entry.ID, entry.Version)
	if err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("entry_id", entry.ID).
			Msg("Ledger lookup failed; republishing")
		return false
	}
	return ok
}
