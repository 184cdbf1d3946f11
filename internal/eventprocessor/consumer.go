// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package eventprocessor

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/moodlog/internal/logging"
	"github.com/tomtom215/moodlog/internal/metrics"
	"github.com/tomtom215/moodlog/internal/models"
)

// Consumer decisions, exported as the decision label of
// moodlog_events_consumed_total.
const (
	DecisionAcked  = "acked"
	DecisionNacked = "nacked"
	DecisionPoison = "poison"
)

// EventHandler handles one decoded event. Returning nil acknowledges the
// event; an error leaves it for redelivery.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *models.EnrichmentEvent) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *models.EnrichmentEvent) error

// HandleEvent implements EventHandler.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *models.EnrichmentEvent) error {
	return f(ctx, event)
}

// ConsumerConfig configures a PartitionConsumer.
type ConsumerConfig struct {
	Partition int
	Topic     string

	// HandleTimeout bounds one handler call. It should stay below the
	// broker's AckWait so the ack is not raced by a redelivery.
	HandleTimeout time.Duration

	// NackDelay is waited before a Nack so a failing dependency is not
	// hammered by immediate redelivery.
	NackDelay time.Duration
}

// PartitionConsumer drives the receive, handle, ack loop of one partition.
// It implements suture.Service.
type PartitionConsumer struct {
	sub        message.Subscriber
	handler    EventHandler
	serializer *Serializer
	cfg        ConsumerConfig
}

// NewPartitionConsumer creates a consumer for cfg.Partition.
func NewPartitionConsumer(sub message.Subscriber, handler EventHandler, cfg ConsumerConfig) *PartitionConsumer {
	if cfg.HandleTimeout <= 0 {
		cfg.HandleTimeout = 30 * time.Second
	}
	if cfg.NackDelay < 0 {
		cfg.NackDelay = 0
	}
	return &PartitionConsumer{
		sub:        sub,
		handler:    handler,
		serializer: NewSerializer(),
		cfg:        cfg,
	}
}

// String implements fmt.Stringer for suture logging.
func (c *PartitionConsumer) String() string {
	return fmt.Sprintf("enrichment-consumer-p%03d", c.cfg.Partition)
}

// Serve consumes until ctx is canceled. An event already being handled when
// ctx is canceled is finished and acknowledged before Serve returns.
func (c *PartitionConsumer) Serve(ctx context.Context) error {
	// The subscription outlives ctx by the duration of the in-flight event.
	subCtx, cancelSub := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelSub()

	messages, err := c.sub.Subscribe(subCtx, c.cfg.Topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.cfg.Topic, err)
	}

	logging.Info().
		Int("partition", c.cfg.Partition).
		Str("topic", c.cfg.Topic).
		Msg("Partition consumer started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Int("partition", c.cfg.Partition).Msg("Partition consumer stopped")
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("%w: %s", ErrSubscriptionClosed, c.cfg.Topic)
			}
			if ctx.Err() != nil {
				// Received after shutdown began; leave it for the next owner.
				msg.Nack()
				return ctx.Err()
			}
			c.process(ctx, msg)
		}
	}
}

// process handles one message and settles it exactly once.
func (c *PartitionConsumer) process(ctx context.Context, msg *message.Message) {
	event, err := c.serializer.Unmarshal(msg.Payload)
	if err != nil {
		logging.Error().
			Err(err).
			Int("partition", c.cfg.Partition).
			Str("message_uuid", msg.UUID).
			Str("entry_id", msg.Metadata.Get(MetadataEntryID)).
			Msg("Dropping undecodable enrichment event")
		msg.Ack()
		metrics.RecordEventConsumed(c.cfg.Partition, DecisionPoison)
		return
	}

	// Lines logged through logging.Ctx while handling carry the partition.
	handleCtx := logging.ContextWithLogger(context.WithoutCancel(ctx),
		logging.With().Int("partition", c.cfg.Partition).Logger())
	if id := msg.Metadata.Get(MetadataCorrelationID); id != "" {
		handleCtx = logging.ContextWithCorrelationID(handleCtx, id)
	} else {
		handleCtx = logging.ContextWithNewCorrelationID(handleCtx)
	}
	handleCtx, cancel := context.WithTimeout(handleCtx, c.cfg.HandleTimeout)
	err = c.handler.HandleEvent(handleCtx, event)
	cancel()

	if err != nil {
		logging.Ctx(handleCtx).Warn().
			Err(err).
			Str("entry_id", event.EntryID).
			Int64("version", event.Version).
			Msg("Enrichment event not settled, requesting redelivery")
		if c.cfg.NackDelay > 0 {
			timer := time.NewTimer(c.cfg.NackDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
			}
		}
		msg.Nack()
		metrics.RecordEventConsumed(c.cfg.Partition, DecisionNacked)
		return
	}

	msg.Ack()
	metrics.RecordEventConsumed(c.cfg.Partition, DecisionAcked)
}
