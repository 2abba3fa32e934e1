// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/charmbracelet/lipgloss"

// Theme defines the roster's color palette. All colors use lipgloss
// ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected roster row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Presence glyphs.
	ActiveStatus lipgloss.Color
	IdleStatus   lipgloss.Color

	// Mirror-down warning banner.
	BannerBackground lipgloss.Color
	BannerForeground lipgloss.Color

	// Status-bar log notices.
	WarnText  lipgloss.Color
	ErrorText lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed
// for 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	ActiveStatus: lipgloss.Color("114"), // green
	IdleStatus:   lipgloss.Color("245"), // gray

	BannerBackground: lipgloss.Color("52"), // dark red background tint
	BannerForeground: lipgloss.Color("217"),

	WarnText:  lipgloss.Color("220"), // amber
	ErrorText: lipgloss.Color("196"), // bright red

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
}
