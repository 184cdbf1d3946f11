// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package enrichment

import (
	"context"

	"github.com/tomtom215/moodlog/internal/eventprocessor"
	"github.com/tomtom215/moodlog/internal/logging"
	"github.com/tomtom215/moodlog/internal/models"
)

// TrackingPublisher records every published event in the ledger so the
// sweep can tell a queued event from a lost one. The record is written
// before the publish so a worker that settles the event first cannot have
// its Resolve overtaken; a failed publish removes it again.
type TrackingPublisher struct {
	next   eventprocessor.EventPublisher
	ledger OutstandingLedger
}

// NewTrackingPublisher wraps next. A nil ledger disables tracking.
func NewTrackingPublisher(next eventprocessor.EventPublisher, ledger OutstandingLedger) *TrackingPublisher {
	return &TrackingPublisher{next: next, ledger: ledger}
}

// PublishEnrichment implements eventprocessor.EventPublisher. Ledger errors
// are logged and never fail the publish.
func (p *TrackingPublisher) PublishEnrichment(ctx context.Context, event *models.EnrichmentEvent) error {
	if p.ledger == nil {
		return p.next.PublishEnrichment(ctx, event)
	}

	if err := p.ledger.Record(ctx, event.EntryID, event.Version); err != nil {
		p.warn(ctx, event, err, "Failed to record outstanding event")
	}
	if err := p.next.PublishEnrichment(ctx, event); err != nil {
		// Left in place, the record would hide the entry from the sweep.
		if rerr := p.ledger.Resolve(context.WithoutCancel(ctx), event.EntryID, event.Version); rerr != nil {
			p.warn(ctx, event, rerr, "Failed to drop record of unpublished event")
		}
		return err
	}
	return nil
}

func (p *TrackingPublisher) warn(ctx context.Context, event *models.EnrichmentEvent, err error, msg string) {
	logging.Ctx(ctx).Warn().
		Err(err).
		Str("entry_id", event.EntryID).
		Int64("version", event.Version).
		Msg(msg)
}
