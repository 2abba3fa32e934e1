// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hearth-chat/hearth/directory"
	"github.com/hearth-chat/hearth/huddle"
	"github.com/hearth-chat/hearth/lib/clock"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/presence"
	"github.com/hearth-chat/hearth/roster"
)

var modelEpoch = time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustUserID(t *testing.T, raw string) ref.UserID {
	t.Helper()
	id, err := ref.ParseUserID(raw)
	if err != nil {
		t.Fatalf("ParseUserID(%q): %v", raw, err)
	}
	return id
}

// newTestModel builds a model over a seeded engine: Ada and Grace
// active, Ben idle, ranker keyed to a local user outside the roster.
// No program is attached, so scheduler sends drop; tests feed
// rebuildMsg directly to stand in for the scheduler firing.
func newTestModel(t *testing.T) model {
	t.Helper()

	ada := mustUserID(t, "101")
	grace := mustUserID(t, "102")
	ben := mustUserID(t, "103")

	fake := clock.Fake(modelEpoch)
	store := presence.NewStore()
	people := directory.NewStatic(
		directory.Person{ID: ada, Name: "Ada Lovelace", Email: "ada@example.com"},
		directory.Person{ID: grace, Name: "Grace Okafor", Email: "grace@example.com"},
		directory.Person{ID: ben, Name: "Ben Adler", Email: "ben@example.com"},
	)

	eng := &engine{
		monitor: presence.NewMonitor(presence.MonitorConfig{
			Clock:  fake,
			Logger: testLogger(),
		}),
		store:       store,
		directory:   people,
		filter:      &filterBar{},
		huddleLimit: 10,
	}
	eng.projection = roster.NewProjection(roster.ProjectionConfig{
		Store:     store,
		Directory: people,
		Order:     roster.StatusThenName,
		Logger:    testLogger(),
	})
	eng.projection.SetTextSource(eng.filter)
	eng.scheduler = roster.NewScheduler(fake, rebuildMinInterval, func() {
		eng.send(rebuildMsg{})
	})
	eng.ranker.Store(huddle.NewRanker(mustUserID(t, "100")))

	store.ReplaceAll([]presence.Record{
		{UserID: ada, Status: presence.StatusActive, ServerTime: modelEpoch},
		{UserID: grace, Status: presence.StatusActive, ServerTime: modelEpoch},
		{UserID: ben, Status: presence.StatusIdle, ServerTime: modelEpoch},
	}, modelEpoch)

	m := newModel(eng)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m = updated.(model)
	updated, _ = m.Update(rebuildMsg{})
	return updated.(model)
}

func rowIDs(m model) string {
	ids := make([]string, 0, len(m.rows))
	for _, row := range m.rows {
		ids = append(ids, row.Record.UserID.String())
	}
	return strings.Join(ids, ",")
}

func sendKey(t *testing.T, m model, runes string) model {
	t.Helper()
	for _, r := range runes {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(model)
	}
	return m
}

func TestModelRebuildOrdersRoster(t *testing.T) {
	m := newTestModel(t)

	// Active users first in name order, then the idle one.
	if got := rowIDs(m); got != "101,102,103" {
		t.Fatalf("rows = %s, want 101,102,103", got)
	}

	view := m.View()
	if !strings.Contains(view, "3 shown  2 active") {
		t.Error("header should carry the roster counts")
	}
	if !strings.Contains(view, "Ada Lovelace") {
		t.Error("view should contain the first roster name")
	}
	if !strings.Contains(view, "q quit") {
		t.Error("view should contain the help line")
	}
}

func TestModelViewBeforeFirstSize(t *testing.T) {
	m := newModel(newTestModel(t).eng)
	if view := m.View(); view != "Connecting..." {
		t.Fatalf("pre-size view = %q, want Connecting...", view)
	}
}

func TestModelNavigationClamps(t *testing.T) {
	m := newTestModel(t)

	if m.cursor != 0 {
		t.Fatalf("initial cursor = %d, want 0", m.cursor)
	}

	m = sendKey(t, m, "jjj")
	if m.cursor != 2 {
		t.Fatalf("cursor after jjj = %d, want 2 (clamped at last row)", m.cursor)
	}

	m = sendKey(t, m, "k")
	if m.cursor != 1 {
		t.Fatalf("cursor after k = %d, want 1", m.cursor)
	}

	m = sendKey(t, m, "g")
	if m.cursor != 0 {
		t.Fatalf("cursor after g = %d, want 0", m.cursor)
	}

	m = sendKey(t, m, "G")
	if m.cursor != 2 {
		t.Fatalf("cursor after G = %d, want 2", m.cursor)
	}
}

func TestModelFilterTyping(t *testing.T) {
	m := newTestModel(t)

	m = sendKey(t, m, "/")
	if m.focus != focusFilter || !m.filter.Active {
		t.Fatal("slash should focus the filter bar")
	}

	// Each keystroke kicks the scheduler; the visible effect arrives
	// as a rebuildMsg, fed manually here.
	m = sendKey(t, m, "gra")
	updated, _ := m.Update(rebuildMsg{})
	m = updated.(model)

	if got := rowIDs(m); got != "102" {
		t.Fatalf("filtered rows = %s, want just Grace (102)", got)
	}
	if !strings.Contains(m.View(), " / gra") {
		t.Error("active filter bar should render the query")
	}

	// Esc clears the text but stays in filter mode.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(model)
	updated, _ = m.Update(rebuildMsg{})
	m = updated.(model)
	if m.filter.Input != "" {
		t.Fatalf("filter input after esc = %q, want empty", m.filter.Input)
	}
	if got := rowIDs(m); got != "101,102,103" {
		t.Fatalf("rows after clearing filter = %s, want full roster", got)
	}

	// A second esc leaves filter mode.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(model)
	if m.focus != focusRoster || m.filter.Active {
		t.Fatal("second esc should return focus to the roster")
	}
}

func TestModelFilterEnterConfirms(t *testing.T) {
	m := newTestModel(t)

	m = sendKey(t, m, "/ada")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(model)

	if m.focus != focusRoster {
		t.Fatal("enter should return focus to the roster")
	}
	if m.filter.Input != "ada" {
		t.Fatalf("filter input after enter = %q, want ada (query keeps applying)", m.filter.Input)
	}
	if !strings.Contains(m.View(), " filter: ada") {
		t.Error("confirmed filter should render the dim indicator")
	}
}

func TestModelQKeyQuitsFromRosterOnly(t *testing.T) {
	m := newTestModel(t)

	_, command := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if command == nil {
		t.Fatal("q should return a command")
	}
	if _, isQuit := command().(tea.QuitMsg); !isQuit {
		t.Fatalf("q command = %T, want tea.QuitMsg", command())
	}

	// In filter mode, q is just a character.
	m = sendKey(t, m, "/")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = updated.(model)
	if m.filter.Input != "q" {
		t.Fatalf("filter input = %q, want q", m.filter.Input)
	}
}

func TestModelUserUpdateSplicesRow(t *testing.T) {
	m := newTestModel(t)
	grace := mustUserID(t, "102")

	// Grace goes idle: her row moves behind Ada but ahead of Ben in
	// the idle name order.
	later := modelEpoch.Add(time.Second)
	if !m.eng.store.Apply(grace, presence.StatusIdle, later) {
		t.Fatal("store should accept the fresher record")
	}
	updated, _ := m.Update(userUpdateMsg{userID: grace})
	m = updated.(model)

	if got := rowIDs(m); got != "101,103,102" {
		t.Fatalf("rows after Grace went idle = %s, want 101,103,102", got)
	}
}

func TestModelUserUpdateInsertsNewcomer(t *testing.T) {
	m := newTestModel(t)
	newcomer := mustUserID(t, "104")

	m.eng.store.Apply(newcomer, presence.StatusActive, modelEpoch.Add(time.Second))
	updated, _ := m.Update(userUpdateMsg{userID: newcomer})
	m = updated.(model)

	// No directory entry: the raw id is the display name, and digits
	// sort ahead of letters among the actives.
	if got := rowIDs(m); got != "104,101,102,103" {
		t.Fatalf("rows after newcomer = %s, want 104,101,102,103", got)
	}
}

func TestModelUserUpdateRespectsFilter(t *testing.T) {
	m := newTestModel(t)
	m.filter.Input = "ada"
	updated, _ := m.Update(rebuildMsg{})
	m = updated.(model)
	if got := rowIDs(m); got != "101" {
		t.Fatalf("filtered rows = %s, want 101", got)
	}

	// A non-matching user's update must not leak into the view.
	grace := mustUserID(t, "102")
	m.eng.store.Apply(grace, presence.StatusIdle, modelEpoch.Add(time.Second))
	updated, _ = m.Update(userUpdateMsg{userID: grace})
	m = updated.(model)

	if got := rowIDs(m); got != "101" {
		t.Fatalf("rows after filtered-out update = %s, want 101", got)
	}
}

func TestModelNarrowToggle(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(model)
	if m.narrowed.String() != "101" {
		t.Fatalf("narrowed = %v, want the selected user 101", m.narrowed)
	}
	if !strings.Contains(m.View(), "narrowed: Ada Lovelace") {
		t.Error("header should show the narrow")
	}

	// Enter on the same row widens.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(model)
	if !m.narrowed.IsZero() {
		t.Fatalf("narrowed after second enter = %v, want zero", m.narrowed)
	}

	// Esc also widens when no filter text is set.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(model)
	if !m.narrowed.IsZero() {
		t.Fatal("esc should clear the narrow")
	}
}

func TestModelMirrorBanner(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(mirrorStatusMsg{active: false})
	m = updated.(model)
	if !strings.Contains(m.View(), "presence mirror is not running") {
		t.Error("inactive mirror should render the warning banner")
	}

	updated, _ = m.Update(mirrorStatusMsg{active: true})
	m = updated.(model)
	if strings.Contains(m.View(), "presence mirror is not running") {
		t.Error("banner should clear when the mirror recovers")
	}
}

func TestModelHuddlePane(t *testing.T) {
	m := newTestModel(t)

	ranker := m.eng.ranker.Load()
	ranker.RecordMessage([]ref.UserID{
		mustUserID(t, "101"), mustUserID(t, "102"), mustUserID(t, "103"),
	}, modelEpoch)

	updated, _ := m.Update(huddlesChangedMsg{})
	m = updated.(model)

	view := m.View()
	if !strings.Contains(view, "Recent huddles") {
		t.Error("view should contain the huddle pane title")
	}
	// Participant names joined with commas appear only in the huddle
	// pane; the pane truncates, so match the head of the line.
	if !strings.Contains(view, "Ada Lovelace, Ben") {
		t.Error("view should contain the huddle participant list")
	}
}

func TestModelLogNoticeFades(t *testing.T) {
	m := newTestModel(t)

	updated, command := m.Update(logRecordMsg{Summary: "presence report failed (error=boom)", Level: slog.LevelWarn})
	m = updated.(model)
	if command == nil {
		t.Fatal("log notice should schedule a fade")
	}
	if !strings.Contains(m.View(), "presence report failed") {
		t.Error("status bar should show the notice")
	}

	updated, _ = m.Update(logRecordFadeMsg{})
	m = updated.(model)
	view := m.View()
	if strings.Contains(view, "presence report failed") {
		t.Error("notice should clear after the fade")
	}
	if !strings.Contains(view, "q quit") {
		t.Error("help line should return after the fade")
	}
}

func TestModelMouseWheelMovesCursor(t *testing.T) {
	m := newTestModel(t)
	contentStart := m.contentStartY()

	updated, _ := m.Update(tea.MouseMsg{
		X:      5,
		Y:      contentStart + 1,
		Button: tea.MouseButtonWheelDown,
	})
	m = updated.(model)
	if m.cursor == 0 {
		t.Error("wheel down in the roster should move the cursor")
	}

	updated, _ = m.Update(tea.MouseMsg{
		X:      5,
		Y:      contentStart + 1,
		Button: tea.MouseButtonWheelUp,
	})
	m = updated.(model)
	if m.cursor != 0 {
		t.Errorf("wheel up should move the cursor back, got %d", m.cursor)
	}
}

func TestModelMouseClickSelectsRow(t *testing.T) {
	m := newTestModel(t)
	contentStart := m.contentStartY()

	updated, _ := m.Update(tea.MouseMsg{
		X:      5,
		Y:      contentStart + 2,
		Button: tea.MouseButtonLeft,
		Action: tea.MouseActionPress,
	})
	m = updated.(model)
	if m.cursor != 2 {
		t.Fatalf("click on the third row selected %d, want 2", m.cursor)
	}
}

func TestModelKeystrokesFeedMonitor(t *testing.T) {
	m := newTestModel(t)

	m.eng.monitor.ClearFreshInput()
	m = sendKey(t, m, "j")
	if !m.eng.monitor.FreshInput() {
		t.Error("a keystroke should mark fresh input on the monitor")
	}
}

func TestModelFocusMessagesFeedMonitor(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(tea.BlurMsg{})
	m = updated.(model)
	if m.eng.monitor.Focused() {
		t.Error("blur message should mark the monitor unfocused")
	}

	updated, _ = m.Update(tea.FocusMsg{})
	m = updated.(model)
	if !m.eng.monitor.Focused() {
		t.Error("focus message should mark the monitor focused")
	}
}
