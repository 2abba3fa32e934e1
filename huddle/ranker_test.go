// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package huddle

import (
	"fmt"
	"testing"
	"time"
)

var rankEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRankerMonotonicTimestamps(t *testing.T) {
	self := mustUserID(t, "me")
	ranker := NewRanker(self)
	participants := userIDs(t, "ada", "grace", "lin")

	t1 := rankEpoch
	t2 := rankEpoch.Add(time.Minute)

	ranker.RecordMessage(participants, t1)
	ranker.RecordMessage(participants, t2)

	key, _ := KeyFor(self, participants)
	got, ok := ranker.Timestamp(key)
	if !ok || !got.Equal(t2) {
		t.Fatalf("Timestamp = %v, %v; want %v", got, ok, t2)
	}

	// Replaying the older message changes nothing: duplicate and
	// out-of-order delivery cannot regress the ranking.
	ranker.RecordMessage(participants, t1)
	got, _ = ranker.Timestamp(key)
	if !got.Equal(t2) {
		t.Errorf("Timestamp after stale replay = %v, want %v", got, t2)
	}

	// Equal timestamps are stale too: only strictly newer applies.
	ranker.RecordMessage(participants, t2)
	got, _ = ranker.Timestamp(key)
	if !got.Equal(t2) {
		t.Errorf("Timestamp after equal replay = %v, want %v", got, t2)
	}
}

func TestRankerSelfAndSmallSetsIgnored(t *testing.T) {
	self := mustUserID(t, "me")
	ranker := NewRanker(self)

	// A one-on-one, even with self in the list, is not a huddle.
	ranker.RecordMessage(userIDs(t, "me", "ada"), rankEpoch)
	if ranker.Len() != 0 {
		t.Errorf("Len = %d after a one-on-one, want 0", ranker.Len())
	}

	// With self dropped, two others remain and the huddle counts.
	ranker.RecordMessage(userIDs(t, "me", "ada", "grace"), rankEpoch)
	if ranker.Len() != 1 {
		t.Fatalf("Len = %d, want 1", ranker.Len())
	}
	keys := ranker.RankedKeys(0)
	if len(keys) != 1 || keys[0] != "ada,grace" {
		t.Errorf("RankedKeys = %v, want [ada,grace]", keys)
	}
}

func TestRankerPermutationsShareOneEntry(t *testing.T) {
	self := mustUserID(t, "me")
	ranker := NewRanker(self)

	ranker.RecordMessage(userIDs(t, "ada", "grace"), rankEpoch)
	ranker.RecordMessage(userIDs(t, "grace", "ada"), rankEpoch.Add(time.Second))

	if ranker.Len() != 1 {
		t.Errorf("Len = %d for permutations of one set, want 1", ranker.Len())
	}
}

func TestRankerRankedKeysOrderAndCap(t *testing.T) {
	self := mustUserID(t, "me")
	ranker := NewRanker(self)

	// Fifteen conversations, each newer than the last.
	for i := range 15 {
		participants := userIDs(t, fmt.Sprintf("u%02d", i), fmt.Sprintf("v%02d", i))
		ranker.RecordMessage(participants, rankEpoch.Add(time.Duration(i)*time.Minute))
	}

	keys := ranker.RankedKeys(0)
	if len(keys) != DefaultLimit {
		t.Fatalf("RankedKeys(0) returned %d keys, want %d", len(keys), DefaultLimit)
	}

	// Descending by stored timestamp: newest conversation first.
	previous, _ := ranker.Timestamp(keys[0])
	for _, key := range keys[1:] {
		ts, ok := ranker.Timestamp(key)
		if !ok {
			t.Fatalf("ranked key %q has no timestamp", key)
		}
		if ts.After(previous) {
			t.Fatalf("ranking not descending: %v after %v", ts, previous)
		}
		previous = ts
	}

	if got := ranker.RankedKeys(3); len(got) != 3 {
		t.Errorf("RankedKeys(3) returned %d keys, want 3", len(got))
	}
	if got := ranker.RankedKeys(100); len(got) != 15 {
		t.Errorf("RankedKeys(100) returned %d keys, want all 15", len(got))
	}
}

func TestRankerEqualTimestampsKeepInsertionOrder(t *testing.T) {
	self := mustUserID(t, "me")
	ranker := NewRanker(self)

	ranker.RecordMessage(userIDs(t, "ada", "grace"), rankEpoch)
	ranker.RecordMessage(userIDs(t, "lin", "noor"), rankEpoch)
	ranker.RecordMessage(userIDs(t, "omar", "pia"), rankEpoch)

	want := []Key{"ada,grace", "lin,noor", "omar,pia"}
	for range 10 {
		keys := ranker.RankedKeys(0)
		if len(keys) != len(want) {
			t.Fatalf("RankedKeys = %v, want %v", keys, want)
		}
		for i := range want {
			if keys[i] != want[i] {
				t.Fatalf("RankedKeys = %v, want insertion order %v", keys, want)
			}
		}
	}
}

func TestRankerUnknownKey(t *testing.T) {
	ranker := NewRanker(mustUserID(t, "me"))
	if _, ok := ranker.Timestamp("ada,grace"); ok {
		t.Error("Timestamp reported ok for an untracked key")
	}
	if keys := ranker.RankedKeys(0); len(keys) != 0 {
		t.Errorf("RankedKeys on an empty ranker = %v, want empty", keys)
	}
}
