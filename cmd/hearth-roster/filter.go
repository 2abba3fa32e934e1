// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/charmbracelet/lipgloss"

// filterBar is the hand-rolled filter input: a query string and an
// active flag, edited one rune at a time by the model's key handler.
// It implements roster.TextSource, so the projection reads the query
// straight from here; all access happens on the program goroutine.
type filterBar struct {
	// Input is the current filter query text.
	Input string

	// Active is true when the bar has keyboard focus (the user
	// pressed / to start typing).
	Active bool
}

// Text implements roster.TextSource.
func (bar *filterBar) Text() string { return bar.Input }

// HandleRune appends a typed character to the query.
func (bar *filterBar) HandleRune(character rune) {
	bar.Input += string(character)
}

// HandleBackspace removes the last character. Returns true if the
// input changed.
func (bar *filterBar) HandleBackspace() bool {
	if len(bar.Input) == 0 {
		return false
	}
	runes := []rune(bar.Input)
	bar.Input = string(runes[:len(runes)-1])
	return true
}

// Clear resets the query and deactivates the bar.
func (bar *filterBar) Clear() {
	bar.Input = ""
	bar.Active = false
}

// View renders the bar. When active, the input with a cursor. When
// inactive with text, a dim indicator. When inactive and empty,
// returns empty string so the header renders in its place.
func (bar *filterBar) View(theme Theme, width int) string {
	if !bar.Active && bar.Input == "" {
		return ""
	}

	if bar.Active {
		style := lipgloss.NewStyle().
			Foreground(theme.NormalText).
			Width(width)
		cursor := lipgloss.NewStyle().
			Foreground(theme.HeaderForeground).
			Bold(true).
			Render("▎")
		return style.Render(" / " + bar.Input + cursor)
	}

	dimStyle := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Width(width)
	return dimStyle.Render(" filter: " + bar.Input)
}
