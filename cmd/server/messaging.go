// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/moodlog/internal/config"
	"github.com/tomtom215/moodlog/internal/eventprocessor"
	"github.com/tomtom215/moodlog/internal/logging"
)

// messaging holds the enrichment channel components.
type messaging struct {
	cfg         config.NATSConfig
	server      *eventprocessor.EmbeddedServer
	conn        *natsgo.Conn
	stream      *eventprocessor.StreamInitializer
	publisher   *eventprocessor.Publisher
	logger      *eventprocessor.WatermillLogger
	subscribers []message.Subscriber
}

func newMessaging(ctx context.Context, cfg config.NATSConfig) (_ *messaging, err error) {
	m := &messaging{cfg: cfg, logger: eventprocessor.NewWatermillLogger()}
	defer func() {
		if err != nil {
			_ = m.Close(ctx)
		}
	}()

	if cfg.EmbeddedServer {
		var serverCfg eventprocessor.ServerConfig
		serverCfg, err = eventprocessor.ServerConfigFrom(cfg)
		if err != nil {
			return nil, err
		}
		m.server, err = eventprocessor.NewEmbeddedServer(serverCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		logging.Info().Str("url", m.server.ClientURL()).Msg("Embedded NATS server started")
	}

	m.conn, m.stream, err = connectStream(ctx, cfg)
	if err != nil {
		return nil, err
	}

	raw, err := eventprocessor.NewNATSPublisher(eventprocessor.PublisherConfigFrom(cfg), m.logger)
	if err != nil {
		return nil, err
	}
	m.publisher = eventprocessor.NewPublisher(raw, cfg.SubjectPrefix, cfg.PartitionCount())
	m.publisher.SetCircuitBreaker(eventprocessor.NewCircuitBreaker(eventprocessor.BreakerConfigFrom(cfg)))

	logging.Info().
		Str("stream", cfg.StreamName).
		Int("partitions", cfg.PartitionCount()).
		Msg("Enrichment channel ready")
	return m, nil
}

func connectStream(ctx context.Context, cfg config.NATSConfig) (*natsgo.Conn, *eventprocessor.StreamInitializer, error) {
	conn, js, err := eventprocessor.ConnectJetStream(cfg.URL, 10*time.Second)
	if err != nil {
		return nil, nil, err
	}
	si, err := eventprocessor.NewStreamInitializer(js, eventprocessor.StreamConfigFrom(cfg))
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := si.EnsureStream(setupCtx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, si, nil
}

// subscriber creates the durable subscriber of one partition. It is closed
// with the messaging components.
func (m *messaging) subscriber(partition int) (message.Subscriber, error) {
	sub, err := eventprocessor.NewPartitionSubscriber(eventprocessor.SubscriberConfigFrom(m.cfg, partition), m.logger)
	if err != nil {
		return nil, fmt.Errorf("partition %d: %w", partition, err)
	}
	m.subscribers = append(m.subscribers, sub)
	return sub, nil
}

// Healthy checks that the stream answers.
func (m *messaging) Healthy(ctx context.Context) error {
	if m.stream == nil || !m.stream.IsHealthy(ctx) {
		return errors.New("enrichment stream unavailable")
	}
	return nil
}

// Close releases subscribers, publisher and connection. The embedded server
// is shut down here only if no supervisor service took it over.
func (m *messaging) Close(ctx context.Context) error {
	var errs []error
	for _, sub := range m.subscribers {
		errs = append(errs, sub.Close())
	}
	if m.publisher != nil {
		errs = append(errs, m.publisher.Close())
	}
	if m.conn != nil {
		m.conn.Close()
	}
	if m.server != nil && m.server.IsRunning() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		errs = append(errs, m.server.Shutdown(shutdownCtx))
	}
	return errors.Join(errs...)
}
