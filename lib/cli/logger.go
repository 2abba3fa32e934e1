// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the plumbing shared by Hearth commands: a
// terminal-aware structured logger and API token resolution.
package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger creates a structured logger for command operations. When
// stderr is a terminal, it uses slog.TextHandler for human-readable
// output. When stderr is piped or redirected (scripts, CI), it uses
// slog.JSONHandler so the records stay machine-parseable.
//
// Callers scope the logger with command context via With():
//
//	logger := cli.NewLogger(false).With("command", "hearth-presence")
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
