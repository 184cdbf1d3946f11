// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package eventprocessor

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/moodlog/internal/logging"
)

// newTestPubSub returns a persistent in-process pub/sub standing in for
// JetStream. Persistent mode delivers messages published before Subscribe,
// like a durable consumer.
func newTestPubSub(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 16,
		Persistent:          true,
	}, NewWatermillLoggerWithLogger(logging.NewTestLogger(nil)))
	t.Cleanup(func() { _ = ps.Close() })
	return ps
}
