// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/moodlog/internal/logging"
	"github.com/tomtom215/moodlog/internal/metrics"
	"github.com/tomtom215/moodlog/internal/models"
)

// Message metadata keys.
const (
	MetadataEntryID       = "entry_id"
	MetadataVersion       = "version"
	MetadataPartition     = "partition"
	MetadataCorrelationID = "correlation_id"
)

// EventPublisher publishes enrichment events. Implemented by Publisher and
// by decorators around it.
type EventPublisher interface {
	PublishEnrichment(ctx context.Context, event *models.EnrichmentEvent) error
}

// Publisher routes enrichment events to their partition subject with circuit
// breaker protection.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	serializer     *Serializer
	prefix         string
	partitions     int
	source         string

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps a Watermill publisher. pub is NATS in production and
// gochannel in tests.
func NewPublisher(pub message.Publisher, prefix string, partitions int) *Publisher {
	if partitions < 1 {
		partitions = 1
	}
	return &Publisher{
		publisher:  pub,
		serializer: NewSerializer(),
		prefix:     prefix,
		partitions: partitions,
		source:     "write",
	}
}

// NewNATSPublisher creates a JetStream-backed Watermill publisher.
func NewNATSPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	if logger == nil {
		logger = NewWatermillLogger()
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // Stream is pre-created by StreamInitializer
			TrackMsgId:    cfg.EnableTrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return pub, nil
}

// SetCircuitBreaker configures the circuit breaker for publish operations.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[interface{}]) {
	p.circuitBreaker = cb
}

// WithSource returns a publisher sharing p's connection whose publishes are
// counted under source ("write", "sweep").
func (p *Publisher) WithSource(source string) *Publisher {
	return &Publisher{
		publisher:      p.publisher,
		circuitBreaker: p.circuitBreaker,
		serializer:     p.serializer,
		prefix:         p.prefix,
		partitions:     p.partitions,
		source:         source,
	}
}

// Partitions returns the partition count events are spread across.
func (p *Publisher) Partitions() int {
	return p.partitions
}

// MessageID is the Nats-Msg-Id of an event. Publishing the same entry
// version twice inside the stream's duplicate window stores it once.
func MessageID(event *models.EnrichmentEvent) string {
	return event.EntryID + "@v" + strconv.FormatInt(event.Version, 10)
}

// PublishEnrichment serializes an event and publishes it to its partition.
func (p *Publisher) PublishEnrichment(ctx context.Context, event *models.EnrichmentEvent) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	data, err := p.serializer.Marshal(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	partition := PartitionFor(event.EntryID, p.partitions)
	topic := PartitionSubject(p.prefix, partition)

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(natsgo.MsgIdHdr, MessageID(event))
	msg.Metadata.Set(MetadataEntryID, event.EntryID)
	msg.Metadata.Set(MetadataVersion, strconv.FormatInt(event.Version, 10))
	msg.Metadata.Set(MetadataPartition, strconv.Itoa(partition))
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	}
	msg.SetContext(ctx)

	if p.circuitBreaker != nil {
		_, err = p.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, p.publisher.Publish(topic, msg)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = errors.Join(ErrPublishUnavailable, err)
		}
	} else {
		err = p.publisher.Publish(topic, msg)
	}

	metrics.RecordEventPublished(p.source, err)
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", MessageID(event), topic, err)
	}
	return nil
}

// Close shuts down the underlying publisher. Publishers derived with
// WithSource share it and must not be closed separately.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
