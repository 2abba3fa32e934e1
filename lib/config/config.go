// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Hearth commands.
//
// Configuration is loaded from a single YAML file specified by:
//   - HEARTH_CONFIG environment variable, or
//   - --config flag passed to the command
//
// A client should start without a file, so a missing path yields the
// built-in defaults rather than an error. After the file (if any) is
// read, HEARTH_SERVER_URL and HEARTH_TOKEN override their fields, and
// ${VAR} / ${VAR:-default} patterns expand inside string values —
// tokens normally arrive as `token: ${HEARTH_TOKEN}` rather than being
// written into the file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration for Hearth client commands.
type Config struct {
	// Server configures how to reach the Hearth server.
	Server ServerConfig `yaml:"server"`

	// Presence configures the reporting cadence and idle detection.
	Presence PresenceConfig `yaml:"presence"`

	// UI configures the terminal roster.
	UI UIConfig `yaml:"ui"`
}

// ServerConfig configures the connection to the Hearth server.
type ServerConfig struct {
	// URL is the base URL of the server, e.g. "https://hearth.example.com".
	URL string `yaml:"url"`

	// Token is the API token. Prefer ${HEARTH_TOKEN} expansion or the
	// HEARTH_TOKEN environment variable over writing it here.
	Token string `yaml:"token"`

	// TokenFile is a path to a file containing the token, for
	// deployments that mount secrets as files. Read by the commands
	// when Token is empty.
	TokenFile string `yaml:"token_file"`
}

// PresenceConfig configures the presence engine's timings. Values are
// duration strings ("50s", "5m"); empty means the default.
type PresenceConfig struct {
	// ReportInterval is how often the periodic presence report is
	// sent. Default: 50s.
	ReportInterval string `yaml:"report_interval"`

	// IdleTimeout is how long without input or focus before the
	// local user counts as idle. Default: 5m.
	IdleTimeout string `yaml:"idle_timeout"`
}

// UIConfig configures the terminal roster.
type UIConfig struct {
	// HuddleLimit caps the recent-conversations list. Default: 10.
	HuddleLimit int `yaml:"huddle_limit"`
}

// Durations are parsed at the accessor, so these are the fallbacks
// for empty or absent fields.
const (
	DefaultReportInterval = 50 * time.Second
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultHuddleLimit    = 10
)

// Default returns the default configuration: no server (the commands
// require one via file, environment, or flag), stock timings.
func Default() *Config {
	return &Config{
		Presence: PresenceConfig{
			ReportInterval: "50s",
			IdleTimeout:    "5m",
		},
		UI: UIConfig{
			HuddleLimit: DefaultHuddleLimit,
		},
	}
}

// Load loads configuration from the path in HEARTH_CONFIG, or returns
// the defaults (plus environment overrides) when it is unset.
func Load() (*Config, error) {
	path := os.Getenv("HEARTH_CONFIG")
	if path == "" {
		cfg := Default()
		cfg.applyEnvironment()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, then applies
// environment overrides and variable expansion.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyEnvironment()
	cfg.expandVariables()
	return cfg, nil
}

// applyEnvironment overrides the connection fields from the
// environment. Only the two values an operator reasonably injects per
// invocation are overridable; everything else belongs in the file.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("HEARTH_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("HEARTH_TOKEN"); v != "" {
		c.Server.Token = v
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// string fields that plausibly reference the environment.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Server.URL = expandVars(c.Server.URL, vars)
	c.Server.Token = expandVars(c.Server.Token, vars)
	c.Server.TokenFile = expandVars(c.Server.TokenFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// ReportInterval returns the parsed report interval, falling back to
// the default for empty or unparseable values (Validate reports the
// latter; the accessor stays total).
func (c *Config) ReportInterval() time.Duration {
	return durationOr(c.Presence.ReportInterval, DefaultReportInterval)
}

// IdleTimeout returns the parsed idle timeout.
func (c *Config) IdleTimeout() time.Duration {
	return durationOr(c.Presence.IdleTimeout, DefaultIdleTimeout)
}

// HuddleLimit returns the huddle list cap.
func (c *Config) HuddleLimit() int {
	if c.UI.HuddleLimit <= 0 {
		return DefaultHuddleLimit
	}
	return c.UI.HuddleLimit
}

func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate checks the configuration for errors, collecting every
// problem rather than stopping at the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.URL == "" {
		errs = append(errs, fmt.Errorf("server.url is required"))
	} else if parsed, err := url.Parse(c.Server.URL); err != nil {
		errs = append(errs, fmt.Errorf("server.url: %w", err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Errorf("server.url scheme must be http or https, got %q", parsed.Scheme))
	}

	if c.Server.Token != "" && c.Server.TokenFile != "" {
		errs = append(errs, fmt.Errorf("server.token and server.token_file are mutually exclusive"))
	}

	for field, value := range map[string]string{
		"presence.report_interval": c.Presence.ReportInterval,
		"presence.idle_timeout":    c.Presence.IdleTimeout,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", field, d))
		}
	}

	if c.UI.HuddleLimit < 0 {
		errs = append(errs, fmt.Errorf("ui.huddle_limit must not be negative, got %d", c.UI.HuddleLimit))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
