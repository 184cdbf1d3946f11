// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package services

import (
	"context"
	"time"

	"github.com/tomtom215/moodlog/internal/logging"
)

// GarbageCollector reclaims storage.
type GarbageCollector interface {
	RunGC(discardRatio float64) error
}

// LedgerGCService runs value log GC on the ledger at a fixed interval.
type LedgerGCService struct {
	gc           GarbageCollector
	interval     time.Duration
	discardRatio float64
	name         string
}

// NewLedgerGCService creates the service. discardRatio defaults to 0.5.
func NewLedgerGCService(gc GarbageCollector, interval time.Duration, discardRatio float64) *LedgerGCService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &LedgerGCService{
		gc:           gc,
		interval:     interval,
		discardRatio: discardRatio,
		name:         "ledger-gc",
	}
}

// Serve implements suture.Service. GC errors are logged and retried on the
// next tick.
func (s *LedgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.gc.RunGC(s.discardRatio); err != nil {
				logging.Warn().Err(err).Str("service", s.name).Msg("Ledger GC failed")
			}
		}
	}
}

func (s *LedgerGCService) String() string {
	return s.name
}
