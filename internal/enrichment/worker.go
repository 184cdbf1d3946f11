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

	"github.com/tomtom215/moodlog/internal/cache"
	"github.com/tomtom215/moodlog/internal/logging"
	"github.com/tomtom215/moodlog/internal/metrics"
	"github.com/tomtom215/moodlog/internal/models"
)

// Outcome is the result of handling one event.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeFailed    Outcome = "failed"
	OutcomeStale     Outcome = "stale"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeDiscarded Outcome = "discarded"
)

// EntryStore is the part of the entry store the worker needs.
type EntryStore interface {
	GetEntry(ctx context.Context, id string) (*models.JournalEntry, error)
	SetSentiment(ctx context.Context, id string, expectedVersion int64, sentiment models.Sentiment) (bool, error)
}

// OutstandingLedger tracks published events that are not yet resolved.
type OutstandingLedger interface {
	Record(ctx context.Context, entryID string, version int64) error
	Resolve(ctx context.Context, entryID string, version int64) error
	IsOutstanding(ctx context.Context, entryID string, version int64) (bool, error)
}

// WorkerConfig configures a Worker.
type WorkerConfig struct {
	// MaxRetries is the total number of classification attempts.
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxBackoff      time.Duration
	ClassifyTimeout time.Duration

	// SettleTimeout bounds the sentiment write made after the handler's
	// deadline cut classification short.
	SettleTimeout time.Duration

	// ClassifierName labels classification metrics.
	ClassifierName string
}

// Worker applies sentiment labels for enrichment events.
type Worker struct {
	store      EntryStore
	cache      cache.Store
	ledger     OutstandingLedger
	classifier Classifier
	cfg        WorkerConfig
	log        *logging.EnrichmentLogger

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWorker creates a worker. cache and ledger may be nil.
func NewWorker(store EntryStore, c cache.Store, ledger OutstandingLedger, classifier Classifier, cfg WorkerConfig) *Worker {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.RetryBackoff {
		cfg.MaxBackoff = cfg.RetryBackoff
	}
	if cfg.ClassifyTimeout <= 0 {
		cfg.ClassifyTimeout = 10 * time.Second
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = 5 * time.Second
	}
	if cfg.ClassifierName == "" {
		cfg.ClassifierName = "custom"
	}
	return &Worker{
		store:      store,
		cache:      c,
		ledger:     ledger,
		classifier: classifier,
		cfg:        cfg,
		log:        logging.NewEnrichmentLogger(),
		sleep:      sleepContext,
	}
}

// HandleEvent implements eventprocessor.EventHandler.
func (w *Worker) HandleEvent(ctx context.Context, event *models.EnrichmentEvent) error {
	_, err := w.Handle(ctx, event)
	return err
}

// Handle processes one event. A non-nil error means the outcome is not
// durable and the event must be redelivered.
func (w *Worker) Handle(ctx context.Context, event *models.EnrichmentEvent) (Outcome, error) {
	start := time.Now()

	entry, err := w.store.GetEntry(ctx, event.EntryID)
	if errors.Is(err, models.ErrEntryNotFound) {
		w.log.LogEntryGone(ctx, event.EntryID, event.Version)
		return w.settle(ctx, event, OutcomeDiscarded, start), nil
	}
	if err != nil {
		return "", fmt.Errorf("read entry %s: %w", event.EntryID, err)
	}

	if entry.Version != event.Version {
		w.log.LogStale(ctx, event.EntryID, event.Version, entry.Version)
		return w.settle(ctx, event, OutcomeStale, start), nil
	}
	if entry.Sentiment.IsTerminal() {
		w.log.LogDuplicate(ctx, event.EntryID, event.Version, entry.Sentiment.String())
		return w.settle(ctx, event, OutcomeDuplicate, start), nil
	}

	// Classify the stored content; it is authoritative for this version.
	label, attempts, classifyErr := w.classify(ctx, entry)
	if classifyErr != nil && ctx.Err() != nil {
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			// Canceled before an outcome; let it be redelivered.
			return "", fmt.Errorf("classify entry %s: %w", entry.ID, ctx.Err())
		}
		// The delivery's time budget is spent. A redelivery would start the
		// attempt count over, so this is exhaustion. The outcome is written
		// under a fresh bound.
		classifyErr = fmt.Errorf("%w: delivery deadline reached after %d attempts: %v",
			ErrClassification, attempts, classifyErr)
		settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.SettleTimeout)
		defer cancel()
		ctx = settleCtx
	}

	outcome := OutcomeApplied
	if classifyErr != nil {
		label = models.SentimentFailed
		outcome = OutcomeFailed
	}

	applied, err := w.store.SetSentiment(ctx, entry.ID, entry.Version, label)
	if err != nil {
		return "", fmt.Errorf("write sentiment for %s: %w", entry.ID, err)
	}
	if !applied {
		// An update landed while classifying.
		current, getErr := w.store.GetEntry(ctx, entry.ID)
		currentVersion := entry.Version
		if getErr == nil {
			currentVersion = current.Version
		}
		w.log.LogStale(ctx, entry.ID, event.Version, currentVersion)
		return w.settle(ctx, event, OutcomeStale, start), nil
	}

	metrics.RecordSentimentWritten(label.String())
	if outcome == OutcomeFailed {
		w.log.LogFailed(ctx, entry.ID, entry.Version, attempts, classifyErr)
	} else {
		w.log.LogApplied(ctx, entry.ID, entry.Version, label.String(), attempts, time.Since(start))
	}

	w.invalidate(ctx, entry)
	return w.settle(ctx, event, outcome, start), nil
}

// classify runs up to MaxRetries attempts with exponential backoff.
func (w *Worker) classify(ctx context.Context, entry *models.JournalEntry) (models.Sentiment, int, error) {
	backoff := w.cfg.RetryBackoff
	var lastErr error

	for attempt := 1; attempt <= w.cfg.MaxRetries; attempt++ {
		label, err := w.classifyOnce(ctx, entry.Content)
		if err == nil {
			return label, attempt, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", attempt, lastErr
		}
		if attempt == w.cfg.MaxRetries {
			break
		}

		w.log.LogAttemptFailed(ctx, entry.ID, attempt, backoff, err)
		if err := w.sleep(ctx, backoff); err != nil {
			return "", attempt, err
		}
		backoff *= 2
		if backoff > w.cfg.MaxBackoff {
			backoff = w.cfg.MaxBackoff
		}
	}
	return "", w.cfg.MaxRetries, fmt.Errorf("%d attempts: %w", w.cfg.MaxRetries, lastErr)
}

func (w *Worker) classifyOnce(ctx context.Context, text string) (models.Sentiment, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, w.cfg.ClassifyTimeout)
	defer cancel()

	start := time.Now()
	label, err := w.classifier.Classify(attemptCtx, text)
	switch {
	case err == nil && !label.IsLabel():
		err = fmt.Errorf("%w: classifier returned %q", ErrClassification, label)
	case err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		err = fmt.Errorf("%w: timed out after %s", ErrClassification, w.cfg.ClassifyTimeout)
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RecordClassification(w.cfg.ClassifierName, result, time.Since(start))
	if err != nil {
		return "", err
	}
	return label, nil
}

// invalidate drops both cached views of entry. Failures are logged; the
// views expire within the cache TTL.
func (w *Worker) invalidate(ctx context.Context, entry *models.JournalEntry) {
	if w.cache == nil {
		return
	}
	if err := w.cache.Invalidate(ctx, cache.EntryKeys(entry.ID, entry.OwnerID)...); err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("entry_id", entry.ID).
			Msg("Cache invalidation after enrichment failed; views expire with TTL")
	}
}

// settle resolves the ledger record of the event's version and records the
// outcome.
func (w *Worker) settle(ctx context.Context, event *models.EnrichmentEvent, outcome Outcome, start time.Time) Outcome {
	if w.ledger != nil {
		if err := w.ledger.Resolve(ctx, event.EntryID, event.Version); err != nil {
			logging.Ctx(ctx).Warn().
				Err(err).
				Str("entry_id", event.EntryID).
				Int64("version", event.Version).
				Msg("Failed to resolve outstanding event")
		}
	}
	metrics.RecordEnrichmentOutcome(string(outcome), time.Since(start))
	return outcome
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
