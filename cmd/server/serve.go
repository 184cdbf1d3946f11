// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/moodlog/internal/api"
	"github.com/tomtom215/moodlog/internal/config"
	"github.com/tomtom215/moodlog/internal/enrichment"
	"github.com/tomtom215/moodlog/internal/eventprocessor"
	"github.com/tomtom215/moodlog/internal/logging"
	"github.com/tomtom215/moodlog/internal/supervisor"
	"github.com/tomtom215/moodlog/internal/supervisor/services"
)

// runServe runs the service until SIGINT or SIGTERM.
func runServe(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Startup failed")
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if a.messaging.server != nil {
		tree.AddDataService(services.NewEmbeddedNATSService(a.messaging.server, cfg.Server.ShutdownTimeout))
	}
	if !cfg.Ledger.InMemory {
		tree.AddDataService(services.NewLedgerGCService(a.ledger, 0, 0))
	}

	if err := addConsumers(tree, a); err != nil {
		return err
	}
	if cfg.Sweep.Enabled {
		tree.AddMessagingService(newSweeper(a))
		logging.Info().Dur("interval", cfg.Sweep.Interval()).Msg("Reconciliation sweep enabled")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(healthHandler(a), api.WithRateLimit(cfg.Server.RateLimit)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Operations server configured")

	err = tree.Serve(ctx)
	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped")
		return err
	}
	logging.Info().Msg("Shutdown complete")
	return nil
}

// addConsumers adds one consumer per owned partition.
func addConsumers(tree *supervisor.SupervisorTree, a *app) error {
	cfg := a.cfg
	if !cfg.Enrichment.Enabled {
		logging.Info().Msg("Enrichment worker disabled in this process")
		return nil
	}

	classifier, name, err := enrichment.NewClassifier(cfg.Enrichment)
	if err != nil {
		return fmt.Errorf("create classifier: %w", err)
	}
	worker := enrichment.NewWorker(a.db, a.cache, a.ledger, classifier, enrichment.WorkerConfig{
		MaxRetries:      cfg.Enrichment.MaxRetries,
		RetryBackoff:    cfg.Enrichment.RetryBackoff,
		MaxBackoff:      cfg.Enrichment.MaxBackoff,
		ClassifyTimeout: cfg.Enrichment.ClassifyTimeout,
		SettleTimeout:   cfg.Database.QueryTimeout,
		ClassifierName:  name,
	})

	partitions := ownedPartitions(cfg)
	for _, p := range partitions {
		sub, err := a.messaging.subscriber(p)
		if err != nil {
			return err
		}
		tree.AddMessagingService(eventprocessor.NewPartitionConsumer(sub, worker, eventprocessor.ConsumerConfig{
			Partition:     p,
			Topic:         eventprocessor.PartitionSubject(cfg.NATS.SubjectPrefix, p),
			HandleTimeout: cfg.NATS.HandleTimeout(),
			NackDelay:     cfg.Enrichment.RetryBackoff,
		}))
	}
	logging.Info().
		Ints("partitions", partitions).
		Str("classifier", name).
		Msg("Enrichment consumers configured")
	return nil
}

// ownedPartitions returns the configured partitions, or all of them.
func ownedPartitions(cfg *config.Config) []int {
	if len(cfg.Enrichment.OwnedPartitions) > 0 {
		return cfg.Enrichment.OwnedPartitions
	}
	return eventprocessor.AllPartitions(cfg.NATS.PartitionCount())
}

func newSweeper(a *app) *enrichment.Sweeper {
	cfg := a.cfg.Sweep
	return enrichment.NewSweeper(a.db, a.publisher("sweep"), a.ledger, enrichment.SweepConfig{
		Interval:           cfg.Interval(),
		PendingThreshold:   cfg.PendingThreshold,
		BatchSize:          cfg.BatchSize,
		RepublishPerSecond: cfg.RepublishPerSecond,
	})
}

func healthHandler(a *app) *api.HealthHandler {
	return api.NewHealthHandler(2*time.Second,
		api.Check{Name: "entry_store", Required: true, Fn: a.db.Ping},
		api.Check{Name: "cache", Fn: a.cache.Ping},
		api.Check{Name: "enrichment_channel", Fn: a.messaging.Healthy},
	)
}
