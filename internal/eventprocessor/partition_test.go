// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package eventprocessor

import (
	"fmt"
	"testing"
)

func TestPartitionForStable(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("entry-%d", i)
		p := PartitionFor(id, 16)
		if p < 0 || p >= 16 {
			t.Fatalf("PartitionFor(%q, 16) = %d, out of range", id, p)
		}
		if again := PartitionFor(id, 16); again != p {
			t.Fatalf("PartitionFor(%q) not stable: %d then %d", id, p, again)
		}
	}
}

func TestPartitionForSpreads(t *testing.T) {
	t.Parallel()

	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		seen[PartitionFor(fmt.Sprintf("e%d", i), 8)] = true
	}
	if len(seen) != 8 {
		t.Errorf("1000 ids hit %d of 8 partitions", len(seen))
	}
}

func TestPartitionForSinglePartition(t *testing.T) {
	t.Parallel()

	for _, n := range []int{-1, 0, 1} {
		if p := PartitionFor("anything", n); p != 0 {
			t.Errorf("PartitionFor(_, %d) = %d, want 0", n, p)
		}
	}
}

func TestSubjectsAndNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		got, want string
	}{
		{PartitionSubject("journal.enrichment", 7), "journal.enrichment.p007"},
		{PartitionSubject("journal.enrichment", 123), "journal.enrichment.p123"},
		{DurableName("enrichment", 3), "enrichment-p003"},
		{StreamSubjects("journal.enrichment")[0], "journal.enrichment.>"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}

	all := AllPartitions(4)
	if len(all) != 4 || all[0] != 0 || all[3] != 3 {
		t.Errorf("AllPartitions(4) = %v", all)
	}
}
