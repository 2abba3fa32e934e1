// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package fuzzy

import (
	"sort"
	"testing"
)

func TestMatchSubstring(t *testing.T) {
	result := Match("Ada Grace Rivera", []rune("grace"))
	if !result.Matched() {
		t.Fatal("expected positive score for substring match")
	}
	if len(result.Positions) == 0 {
		t.Fatal("expected non-empty match positions")
	}
}

func TestMatchNonContiguous(t *testing.T) {
	// "agr" should match across word starts: Ada, Grace, Rivera.
	result := Match("Ada Grace Rivera", []rune("agr"))
	if !result.Matched() {
		t.Fatal("expected positive score for non-contiguous match")
	}
}

func TestMatchMiss(t *testing.T) {
	result := Match("Ada Grace Rivera", []rune("xyz"))
	if result.Matched() {
		t.Errorf("expected no match, got score %d", result.Score)
	}
	if len(result.Positions) != 0 {
		t.Errorf("expected no positions, got %v", result.Positions)
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	for _, text := range []string{"Ada Grace", "ADA GRACE", "ada grace"} {
		if !Match(text, []rune("grace")).Matched() {
			t.Errorf("pattern %q did not match %q", "grace", text)
		}
		if !Match(text, []rune("GRACE")).Matched() {
			t.Errorf("pattern %q did not match %q", "GRACE", text)
		}
	}
}

func TestMatchEmptyPattern(t *testing.T) {
	result := Match("anything", []rune{})
	if result.Matched() {
		t.Errorf("empty pattern matched with score %d", result.Score)
	}
}

func TestMatchPositionsSortedInBounds(t *testing.T) {
	text := "hello world"
	result := Match(text, []rune("hw"))
	if !result.Matched() {
		t.Fatal("expected match")
	}
	if !sort.IntsAreSorted(result.Positions) {
		t.Errorf("positions not ascending: %v", result.Positions)
	}
	for _, position := range result.Positions {
		if position < 0 || position >= len([]rune(text)) {
			t.Errorf("position %d out of bounds for %q", position, text)
		}
	}
}

func TestMatchPrefersTighterMatch(t *testing.T) {
	tight := Match("pooling is great", []rune("pooling"))
	scattered := Match("p-something o-other l-long i-inner n-nope g-gone", []rune("pooling"))
	if !tight.Matched() || !scattered.Matched() {
		t.Fatal("both candidates should match")
	}
	if tight.Score <= scattered.Score {
		t.Errorf("tight match scored %d, scattered %d; want tight higher",
			tight.Score, scattered.Score)
	}
}

func TestMatcherReuse(t *testing.T) {
	matcher := NewMatcher()
	for range 100 {
		if !matcher.Match("Ada Grace Rivera", []rune("ada")).Matched() {
			t.Fatal("matcher stopped matching under reuse")
		}
		if matcher.Match("Ada Grace Rivera", []rune("zzz")).Matched() {
			t.Fatal("matcher produced a false positive under reuse")
		}
	}
}
