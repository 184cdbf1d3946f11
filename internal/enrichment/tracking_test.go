// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/moodlog/internal/models"
	"github.com/tomtom215/moodlog/internal/testinfra"
)

func TestTrackingPublisherRecordsOnSuccess(t *testing.T) {
	l := newTestLedger(t)
	pub := &testinfra.RecordingPublisher{}
	p := NewTrackingPublisher(pub, l)
	ctx := context.Background()

	event := models.NewEnrichmentEvent(pendingEntry("e1", 4, "x"), baseTime)
	if err := p.PublishEnrichment(ctx, event); err != nil {
		t.Fatal(err)
	}
	if ok, _ := l.IsOutstanding(ctx, "e1", 4); !ok {
		t.Error("successful publish not recorded")
	}
	if len(pub.Events()) != 1 {
		t.Error("event not forwarded")
	}
}

func TestTrackingPublisherSkipsOnFailure(t *testing.T) {
	l := newTestLedger(t)
	want := errors.New("publish failed")
	p := NewTrackingPublisher(&testinfra.RecordingPublisher{Err: want}, l)
	ctx := context.Background()

	err := p.PublishEnrichment(ctx, models.NewEnrichmentEvent(pendingEntry("e1", 1, "x"), baseTime))
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
	if ok, _ := l.IsOutstanding(ctx, "e1", 1); ok {
		t.Error("failed publish recorded as outstanding")
	}
}

// settlingPublisher lets the worker settle each event before the publish
// call returns, as a fast consumer on the same broker can.
type settlingPublisher struct {
	ledger      OutstandingLedger
	outstanding bool
}

func (p *settlingPublisher) PublishEnrichment(ctx context.Context, event *models.EnrichmentEvent) error {
	p.outstanding, _ = p.ledger.IsOutstanding(ctx, event.EntryID, event.Version)
	return p.ledger.Resolve(ctx, event.EntryID, event.Version)
}

func TestTrackingPublisherSettledBeforeReturn(t *testing.T) {
	l := newTestLedger(t)
	next := &settlingPublisher{ledger: l}
	p := NewTrackingPublisher(next, l)
	ctx := context.Background()

	if err := p.PublishEnrichment(ctx, models.NewEnrichmentEvent(pendingEntry("e1", 2, "x"), baseTime)); err != nil {
		t.Fatal(err)
	}
	if !next.outstanding {
		t.Error("event was not recorded before it was published")
	}
	if ok, _ := l.IsOutstanding(ctx, "e1", 2); ok {
		t.Error("settled event still outstanding; the sweep would skip the entry")
	}
}

func TestTrackingPublisherLedgerErrorIgnored(t *testing.T) {
	l := newTestLedger(t)
	_ = l.Close()
	p := NewTrackingPublisher(&testinfra.RecordingPublisher{}, l)

	if err := p.PublishEnrichment(context.Background(), models.NewEnrichmentEvent(pendingEntry("e1", 1, "x"), baseTime)); err != nil {
		t.Errorf("ledger failure surfaced as publish error: %v", err)
	}
}

func TestTrackingPublisherNilLedger(t *testing.T) {
	pub := &testinfra.RecordingPublisher{}
	p := NewTrackingPublisher(pub, nil)
	if err := p.PublishEnrichment(context.Background(), models.NewEnrichmentEvent(pendingEntry("e1", 1, "x"), baseTime)); err != nil {
		t.Fatal(err)
	}
	if len(pub.Events()) != 1 {
		t.Error("event not forwarded")
	}
}
