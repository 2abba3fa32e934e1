// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuzzy scores how well a typed pattern matches a candidate
// string, using fzf's V2 matching algorithm. The roster filter uses it
// so that "agr" finds "Ada Grace Rivera" the way fzf users expect,
// with match positions available for highlighting.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Result is the outcome of one match attempt. Score is zero when the
// pattern did not match; higher is better. Positions are rune indices
// into the candidate text, ascending, for highlighting.
type Result struct {
	Score     int
	Positions []int
}

// Matched reports whether the pattern matched at all.
func (r Result) Matched() bool { return r.Score > 0 }

// Match scores pattern against text. Matching is case-insensitive
// (both sides are lowercased) and normalizing (diacritics fold, so
// "rene" matches "René"). An empty pattern never matches.
//
// Match allocates working memory per call; use a Matcher in loops.
func Match(text string, pattern []rune) Result {
	return match(text, pattern, nil)
}

// Matcher runs matches against many candidates while reusing fzf's
// slab allocation between calls. Not safe for concurrent use; give
// each goroutine its own.
type Matcher struct {
	slab *util.Slab
}

// NewMatcher returns a Matcher with a slab sized the way fzf sizes
// its own per-worker slabs.
func NewMatcher() *Matcher {
	return &Matcher{slab: util.MakeSlab(100*1024, 2048)}
}

// Match is equivalent to the package-level Match with slab reuse.
func (m *Matcher) Match(text string, pattern []rune) Result {
	return match(text, pattern, m.slab)
}

func match(text string, pattern []rune, slab *util.Slab) Result {
	if len(pattern) == 0 {
		return Result{}
	}

	chars := util.ToChars([]byte(strings.ToLower(text)))
	lowered := []rune(strings.ToLower(string(pattern)))

	matched, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if matched.Score <= 0 {
		return Result{}
	}

	result := Result{Score: matched.Score}
	if positions != nil {
		result.Positions = append(result.Positions, *positions...)
		sort.Ints(result.Positions)
	}
	return result
}
