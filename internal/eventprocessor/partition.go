// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package eventprocessor

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// PartitionFor maps an entry ID to a partition in [0, partitions). The
// mapping is stable across processes and restarts.
func PartitionFor(entryID string, partitions int) int {
	if partitions <= 1 {
		return 0
	}
	return int(xxhash.Sum64String(entryID) % uint64(partitions))
}

// PartitionSubject returns the subject of one partition.
func PartitionSubject(prefix string, partition int) string {
	return fmt.Sprintf("%s.p%03d", prefix, partition)
}

// StreamSubjects returns the stream subject filter covering every partition.
func StreamSubjects(prefix string) []string {
	return []string{prefix + ".>"}
}

// DurableName returns the durable consumer name of one partition.
func DurableName(prefix string, partition int) string {
	return fmt.Sprintf("%s-p%03d", prefix, partition)
}

// AllPartitions returns [0, partitions).
func AllPartitions(partitions int) []int {
	out := make([]int, partitions)
	for i := range out {
		out[i] = i
	}
	return out
}
