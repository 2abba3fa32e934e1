// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/hearth-chat/hearth/lib/config"
)

// ResolveToken produces the API token for a command, in order of
// preference: the config's inline token, the config's token file, an
// interactive no-echo prompt when stdin is a terminal. Returns an
// error when none of the three can produce one — a piped invocation
// with no configured token has no way to ask.
func ResolveToken(cfg *config.Config) (string, error) {
	if cfg.Server.Token != "" {
		return cfg.Server.Token, nil
	}

	if cfg.Server.TokenFile != "" {
		token, err := readTokenFile(cfg.Server.TokenFile)
		if err != nil {
			return "", err
		}
		return token, nil
	}

	stdinFileDescriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFileDescriptor) {
		return "", fmt.Errorf("no API token configured (set server.token, server.token_file, or HEARTH_TOKEN)")
	}

	fmt.Fprint(os.Stderr, "API token: ")
	tokenBytes, err := term.ReadPassword(stdinFileDescriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	if len(tokenBytes) == 0 {
		return "", fmt.Errorf("empty token")
	}
	return string(tokenBytes), nil
}

// readTokenFile reads a token from a file path, stripping trailing
// newlines (common with echo/printf pipelines).
func readTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", path, err)
	}

	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return "", fmt.Errorf("token file %s is empty (after stripping trailing newlines)", path)
	}
	return string(data), nil
}
