// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package testinfra

import (
	"context"
	"sync"

	"github.com/tomtom215/moodlog/internal/models"
)

// RecordingPublisher records published events. Err, when set, is returned
// by every publish and nothing is recorded.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []models.EnrichmentEvent
	Err    error
}

// PublishEnrichment implements eventprocessor.EventPublisher.
func (p *RecordingPublisher) PublishEnrichment(ctx context.Context, event *models.EnrichmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, *event)
	return nil
}

// SetErr changes the error returned by publishes.
func (p *RecordingPublisher) SetErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Err = err
}

// Events returns a copy of the recorded events.
func (p *RecordingPublisher) Events() []models.EnrichmentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.EnrichmentEvent(nil), p.events...)
}
