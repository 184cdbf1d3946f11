// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package eventprocessor implements the enrichment event channel on NATS
// JetStream through Watermill.
//
// Events are routed to one of N partitions by a hash of the entry ID, so all
// events for an entry land on the same subject:
//
//	journal.enrichment.p000 ... journal.enrichment.p{N-1}
//
// One stream (JOURNAL_ENRICHMENT) captures every partition subject. Each
// partition is consumed by a durable JetStream consumer with MaxAckPending=1,
// which makes a partition strictly sequential even when several worker
// instances share it through the queue group.
//
// Delivery is at-least-once. A PartitionConsumer acknowledges an event only
// after its handler returned, so an event whose outcome is not yet durable is
// redelivered after a crash or a handler error. Payloads that cannot be
// decoded are acknowledged and logged; redelivering them cannot succeed.
//
// Components:
//   - Publisher: partition routing, Nats-Msg-Id deduplication, circuit breaker
//   - PartitionConsumer: per-partition receive, handle, ack loop
//   - StreamInitializer: idempotent stream create-or-update
//   - EmbeddedServer: optional in-process NATS server with JetStream
//   - Serializer: JSON codec for models.EnrichmentEvent
//   - WatermillLogger: zerolog adapter for Watermill
//
// Tests substitute Watermill's gochannel pub/sub for NATS.
package eventprocessor
