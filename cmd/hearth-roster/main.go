// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// hearth-roster is the interactive terminal roster: a live view of
// who is around, fed by the same presence engine the one-shot
// hearth-presence command uses.
//
// Three background goroutines run next to the bubbletea program: the
// reporter (outbound presence), the event source (inbound long-poll),
// and the watchdog beat (suspend detection). Their callbacks arrive
// as program messages; local keystrokes and terminal focus changes
// feed the activity monitor, closing the loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/hearth-chat/hearth/api"
	"github.com/hearth-chat/hearth/directory"
	"github.com/hearth-chat/hearth/huddle"
	"github.com/hearth-chat/hearth/lib/cli"
	"github.com/hearth-chat/hearth/lib/clock"
	"github.com/hearth-chat/hearth/lib/config"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/lib/version"
	"github.com/hearth-chat/hearth/presence"
	"github.com/hearth-chat/hearth/roster"
)

// rebuildMinInterval is the coalescing window for full roster
// rebuilds: bursts of refreshes and filter keystrokes collapse to a
// leading repaint plus at most one trailing repaint per window.
const rebuildMinInterval = 250 * time.Millisecond

// engine bundles the presence machinery the TUI reads and drives.
// The model reads the store, directory, projection, and ranker
// directly; each is internally locked. The background goroutines
// feed changes in as program messages via send.
type engine struct {
	monitor     *presence.Monitor
	store       *presence.Store
	directory   *directory.Static
	projection  *roster.Projection
	scheduler   *roster.Scheduler
	filter      *filterBar
	huddleLimit int

	// ranker is created by the first registration snapshot, which
	// names the local user. Nil until then; message events arriving
	// before it exists are impossible (events follow registration).
	ranker atomic.Pointer[huddle.Ranker]

	program atomic.Pointer[tea.Program]
}

// send forwards a message to the program. Callers are the engine
// goroutines and the scheduler timer, never the program's own Update.
func (eng *engine) send(message tea.Msg) {
	if program := eng.program.Load(); program != nil {
		program.Send(message)
	}
}

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
	var logOutput string
	var verbose bool

	flagSet := pflag.NewFlagSet("hearth-roster", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $HEARTH_CONFIG)")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file (in addition to the status bar)")
	flagSet.BoolVar(&verbose, "verbose", false, "show info-level records in the status bar")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match the other Hearth
	// binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("hearth-roster")
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

	// Engine records go to the status bar, not stderr: writes there
	// would corrupt the alt-screen display. An optional file logger
	// captures everything for post-mortem debugging.
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	tuiHandler := newTUILogHandler(level)

	var logger *slog.Logger
	if logOutput != "" {
		fileHandler, fileCloser, fileErr := openFileLogHandler(logOutput)
		if fileErr != nil {
			return fmt.Errorf("cannot open log file %s: %w", logOutput, fileErr)
		}
		defer fileCloser()
		logger = slog.New(fanoutHandler{tuiHandler, fileHandler})
	} else {
		logger = slog.New(tuiHandler)
	}

	return runRoster(cfg, token, tuiHandler, logger)
}

// loadConfig loads from --config when given, otherwise the
// HEARTH_CONFIG / defaults chain.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// runRoster wires the engine to the model and runs the program until
// quit.
func runRoster(cfg *config.Config, token string, tuiHandler *tuiLogHandler, logger *slog.Logger) error {
	client, err := api.NewClient(api.ClientConfig{
		BaseURL: cfg.Server.URL,
		Token:   token,
		// The event long-poll holds its connection open for up to a
		// minute; an overall client timeout would sever it.
		HTTPClient: &http.Client{},
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	monitor := presence.NewMonitor(presence.MonitorConfig{
		IdleTimeout: cfg.IdleTimeout(),
		Logger:      logger,
	})
	store := presence.NewStore()
	people := directory.NewStatic()
	watchdog := presence.NewWatchdog(presence.WatchdogConfig{Logger: logger})

	eng := &engine{
		monitor:     monitor,
		store:       store,
		directory:   people,
		filter:      &filterBar{},
		huddleLimit: cfg.HuddleLimit(),
	}
	eng.projection = roster.NewProjection(roster.ProjectionConfig{
		Store:     store,
		Directory: people,
		Order:     roster.StatusThenName,
		Logger:    logger,
	})
	eng.projection.SetTextSource(eng.filter)
	eng.scheduler = roster.NewScheduler(clock.Real(), rebuildMinInterval, func() {
		eng.send(rebuildMsg{})
	})
	defer eng.scheduler.Stop()

	reporter := presence.NewReporter(presence.ReporterConfig{
		Monitor:        monitor,
		Sender:         client,
		Store:          store,
		Watchdog:       watchdog,
		Interval:       cfg.ReportInterval(),
		OnFullRefresh:  func() { eng.send(fullRefreshMsg{}) },
		OnUserUpdate:   func(userID ref.UserID) { eng.send(userUpdateMsg{userID: userID}) },
		OnMirrorStatus: func(active bool) { eng.send(mirrorStatusMsg{active: active}) },
		Logger:         logger,
	})

	source := api.NewEventSource(api.EventSourceConfig{
		Client:   client,
		Watchdog: watchdog,
		OnSnapshot: func(reg api.Registration) {
			for _, person := range reg.Members {
				people.Upsert(person)
			}
			if eng.ranker.Load() == nil && !reg.SelfID.IsZero() {
				eng.ranker.Store(huddle.NewRanker(reg.SelfID))
			}
			if reg.Snapshot != nil {
				store.ReplaceAll(reg.Snapshot.Presences, reg.Snapshot.ServerTime)
				if reg.Snapshot.MirrorActive != nil {
					eng.send(mirrorStatusMsg{active: *reg.Snapshot.MirrorActive})
				}
			}
			eng.send(fullRefreshMsg{})
		},
		OnPresence: reporter.ApplyUpdate,
		OnMessage: func(sender ref.UserID, recipients []ref.UserID, timestamp time.Time) {
			ranker := eng.ranker.Load()
			if ranker == nil {
				return
			}
			participants := append([]ref.UserID{sender}, recipients...)
			ranker.RecordMessage(participants, timestamp)
			eng.send(huddlesChangedMsg{})
		},
		Logger: logger,
	})

	program := tea.NewProgram(newModel(eng),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithMouseCellMotion(),
	)
	eng.program.Store(program)
	tuiHandler.SetProgram(program)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchdog.Run(ctx)
	go reporter.Run(ctx)
	go source.Run(ctx)

	_, err = program.Run()

	// Stop the engine before the terminal state unwinds. The
	// long-poll aborts on cancellation, so the waits are short.
	cancel()
	<-reporter.Done()
	<-source.Done()
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Hearth roster — live presence for your chat server in a terminal.

Connects with the token from the config file (or HEARTH_TOKEN),
registers an event queue, and keeps a filterable user roster plus
your recent group conversations on screen. Keystrokes and terminal
focus drive your own presence: switch away and you go idle, come
back and the server hears about it immediately.

Usage:
  hearth-roster [flags]

Keys:
  j/k, arrows    move        pgup/pgdn  page        g/G  top/bottom
  enter          narrow to the selected user (enter again to widen)
  /              filter the roster (commas separate terms)
  esc            clear the filter, then the narrow
  q, ctrl+c      quit

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

// openFileLogHandler creates a slog.JSONHandler writing to the given
// path. Returns the handler, a cleanup function that closes the
// file, and any error. The file is created or truncated.
func openFileLogHandler(path string) (slog.Handler, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return handler, func() { file.Close() }, nil
}

// fanoutHandler is a slog.Handler that sends each record to multiple
// underlying handlers. A record is enabled if any sub-handler is
// enabled for that level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
