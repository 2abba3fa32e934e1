// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package roster

import (
	"strings"

	"github.com/hearth-chat/hearth/lib/fuzzy"
)

// matchQuery reports whether a user with the given name and email
// passes the search query. The query is a comma-separated list of
// terms matched independently: a user passes if any term matches.
// An empty query passes everyone.
func matchQuery(matcher *fuzzy.Matcher, query, name, email string) bool {
	terms := splitQueryTerms(query)
	if len(terms) == 0 {
		return true
	}
	for _, term := range terms {
		if matchTerm(matcher, term, name, email) {
			return true
		}
	}
	return false
}

// splitQueryTerms breaks a query on commas, trimming whitespace and
// lowercasing. Blank segments (stray commas) are dropped.
func splitQueryTerms(query string) []string {
	var terms []string
	for _, segment := range strings.Split(query, ",") {
		term := strings.ToLower(strings.TrimSpace(segment))
		if term == "" {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

// matchTerm applies one lowercased term to one user. Prefix matches
// on name words and email are the fast path users expect from typing
// the start of a name; the fuzzy pass additionally catches
// non-contiguous abbreviations like "gok" for "Grace Okafor".
func matchTerm(matcher *fuzzy.Matcher, term, name, email string) bool {
	loweredName := strings.ToLower(name)
	for _, word := range strings.Fields(loweredName) {
		if strings.HasPrefix(word, term) {
			return true
		}
	}
	if email != "" && strings.HasPrefix(strings.ToLower(email), term) {
		return true
	}
	return matcher.Match(loweredName, []rune(term)).Matched()
}
