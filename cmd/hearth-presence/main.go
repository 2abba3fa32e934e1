// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// hearth-presence sends a single presence report and prints the
// roster the server returns. It is the scripting-friendly sibling of
// hearth-roster: same config, same wire client, no terminal UI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/hearth-chat/hearth/api"
	"github.com/hearth-chat/hearth/lib/cli"
	"github.com/hearth-chat/hearth/lib/config"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/lib/version"
	"github.com/hearth-chat/hearth/presence"
)

// requestTimeout bounds the single report request. Nothing here
// long-polls, so a request that takes this long is stuck.
const requestTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var statusFlag string
	var pingOnly bool
	var jsonOutput bool
	var verbose bool

	flagSet := pflag.NewFlagSet("hearth-presence", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $HEARTH_CONFIG)")
	flagSet.StringVar(&statusFlag, "status", "active", `status to report ("active" or "idle")`)
	flagSet.BoolVar(&pingOnly, "ping-only", false, "record the status without fetching the roster")
	flagSet.BoolVar(&jsonOutput, "json", false, "print the snapshot as JSON")
	flagSet.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match the other Hearth
	// binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("hearth-presence")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	reportStatus, err := parseStatus(statusFlag)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	token, err := cli.ResolveToken(cfg)
	if err != nil {
		return err
	}

	logger := cli.NewLogger(verbose).With("command", "hearth-presence")

	client, err := api.NewClient(api.ClientConfig{
		BaseURL: cfg.Server.URL,
		Token:   token,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	snapshot, err := client.SendReport(ctx, presence.Report{
		Status:   reportStatus,
		PingOnly: pingOnly,
		// An explicit active report stands in for the input a
		// monitor would have observed.
		NewUserInput: reportStatus == presence.StatusActive,
		SlimPresence: true,
	})
	if err != nil {
		return err
	}

	if snapshot == nil {
		logger.Info("presence recorded", "status", reportStatus)
		return nil
	}

	if snapshot.MirrorActive != nil && !*snapshot.MirrorActive {
		logger.Warn("presence mirror is not running; statuses may be stale")
	}

	sortRecords(snapshot.Presences)

	if jsonOutput {
		return writeJSON(os.Stdout, snapshot)
	}
	if len(snapshot.Presences) == 0 {
		fmt.Fprintln(os.Stderr, "No presence records returned.")
		return nil
	}
	return printRoster(os.Stdout, snapshot)
}

// loadConfig loads from --config when given, otherwise the
// HEARTH_CONFIG / defaults chain.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// parseStatus maps the --status flag to a presence status.
func parseStatus(value string) (presence.Status, error) {
	switch value {
	case "active":
		return presence.StatusActive, nil
	case "idle":
		return presence.StatusIdle, nil
	}
	return "", fmt.Errorf("invalid --status %q (want \"active\" or \"idle\")", value)
}

// sortRecords orders the roster for display: active users first,
// then most recent activity, then ID so equal rows land
// deterministically.
func sortRecords(records []presence.Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Status != b.Status {
			return a.Status == presence.StatusActive
		}
		if !a.ServerTime.Equal(b.ServerTime) {
			return a.ServerTime.After(b.ServerTime)
		}
		return a.UserID.Less(b.UserID)
	})
}

// printRoster writes the roster as aligned columns.
func printRoster(w io.Writer, snapshot *presence.Snapshot) error {
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "USER\tSTATUS\tLAST ACTIVE\n")
	for _, record := range snapshot.Presences {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			record.UserID, record.Status, formatAge(snapshot.ServerTime, record.ServerTime))
	}
	return tw.Flush()
}

// formatAge renders how far behind the server clock a record's
// timestamp lies, coarsened to the largest useful unit. A zero
// timestamp (a user the server never saw active) renders as a dash.
func formatAge(now, then time.Time) string {
	if then.IsZero() {
		return "-"
	}
	age := now.Sub(then)
	if age < 0 {
		age = 0
	}
	switch {
	case age < time.Minute:
		return "now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(age.Hours()/24))
}

// snapshotJSON is the --json output shape: the decoded report
// response with times in RFC 3339 rather than raw epoch seconds.
type snapshotJSON struct {
	ServerTime   time.Time      `json:"server_time"`
	MirrorActive *bool          `json:"mirror_active,omitempty"`
	Presences    []presenceJSON `json:"presences"`
}

type presenceJSON struct {
	UserID     ref.UserID      `json:"user_id"`
	Status     presence.Status `json:"status"`
	LastActive time.Time       `json:"last_active"`
}

// writeJSON emits the snapshot as indented JSON. The presences array
// is always present, never null, so jq pipelines need no guards.
func writeJSON(w io.Writer, snapshot *presence.Snapshot) error {
	out := snapshotJSON{
		ServerTime:   snapshot.ServerTime,
		MirrorActive: snapshot.MirrorActive,
		Presences:    make([]presenceJSON, 0, len(snapshot.Presences)),
	}
	for _, record := range snapshot.Presences {
		out.Presences = append(out.Presences, presenceJSON{
			UserID:     record.UserID,
			Status:     record.Status,
			LastActive: record.ServerTime,
		})
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Hearth presence — send one presence report and list who is around.

Reports your status with a single API call and prints the roster the
server returns: one line per user with their status and how recently
they were active. The token comes from the config file or
HEARTH_TOKEN; on a terminal you are prompted when neither has one.

Usage:
  hearth-presence [flags]

Examples:
  hearth-presence                   report active, list the roster
  hearth-presence --status idle     report idle instead
  hearth-presence --ping-only       keep-alive, no roster output
  hearth-presence --json | jq '.presences[].user_id'

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
