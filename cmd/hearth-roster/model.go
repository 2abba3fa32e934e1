// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/hearth-chat/hearth/huddle"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/presence"
	"github.com/hearth-chat/hearth/roster"
)

// Messages from the engine goroutines, adapted to the program by the
// callbacks wired in run(). Each is deliberately small: the handlers
// read current state from the store and projection instead of
// carrying copies.

// fullRefreshMsg reports that a bulk change replaced the store (a
// registration snapshot or a full report response landed).
type fullRefreshMsg struct{}

// rebuildMsg is the scheduler firing: rebuild the visible roster now.
type rebuildMsg struct{}

// userUpdateMsg reports that one user's presence record changed.
type userUpdateMsg struct {
	userID ref.UserID
}

// huddlesChangedMsg reports that the huddle ranking changed.
type huddlesChangedMsg struct{}

// mirrorStatusMsg carries the mirror flag from a full response.
type mirrorStatusMsg struct {
	active bool
}

// focusRegion identifies which element receives keystrokes.
type focusRegion int

const (
	focusRoster focusRegion = iota
	focusFilter
)

// Pane geometry. The huddle pane keeps a fixed width and disappears
// entirely on terminals too narrow to show both panes.
const (
	huddlePaneWidth = 32
	minRosterWidth  = 20
)

// model is the bubbletea model for the roster TUI. All mutation
// happens on the program goroutine; the engine's pieces (store,
// directory, projection, ranker) are internally locked, so reading
// them here while the background goroutines write is safe.
type model struct {
	eng   *engine
	theme Theme
	keys  KeyMap

	width  int
	height int
	ready  bool

	// rows is the visible roster in display order, maintained
	// incrementally: userUpdateMsg splices one row, rebuildMsg
	// rebuilds the whole slice from the projection.
	rows   []roster.Entry
	cursor int

	rosterView viewport.Model

	filter *filterBar
	focus  focusRegion

	// narrowed is the narrow target; zero when the view is wide.
	narrowed ref.UserID

	// mirrorDown is true after the server reported the presence
	// mirror inactive.
	mirrorDown bool

	// huddles holds the pre-rendered recent-conversation lines.
	huddles []string

	notice      string
	noticeLevel slog.Level
}

func newModel(eng *engine) model {
	return model{
		eng:    eng,
		theme:  DefaultTheme,
		keys:   DefaultKeyMap,
		filter: eng.filter,
	}
}

// Init implements tea.Model. The first roster build happens when the
// registration snapshot arrives; there is nothing to show before it.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.ready = true
		m.updatePaneSizes()
		m.syncRosterContent()
		return m, nil

	case tea.KeyMsg:
		// Every keystroke is user activity, including the one that
		// quits.
		m.eng.monitor.NoteInput()
		if m.focus == focusFilter {
			return m.handleFilterKeys(message)
		}
		return m.handleRosterKeys(message)

	case tea.MouseMsg:
		m.eng.monitor.NoteInput()
		m.handleMouse(message)
		return m, nil

	case tea.FocusMsg:
		m.eng.monitor.NoteFocus()
		return m, nil

	case tea.BlurMsg:
		m.eng.monitor.NoteBlur()
		return m, nil

	case fullRefreshMsg:
		return m, m.kickRebuild()

	case rebuildMsg:
		m.rebuildRows()
		m.rebuildHuddles()
		return m, nil

	case userUpdateMsg:
		m.applyUserUpdate(message.userID)
		return m, nil

	case huddlesChangedMsg:
		m.rebuildHuddles()
		return m, nil

	case mirrorStatusMsg:
		down := !message.active
		if down != m.mirrorDown {
			m.mirrorDown = down
			m.updatePaneSizes()
			m.syncRosterContent()
		}
		return m, nil

	case logRecordMsg:
		m.notice = message.Summary
		m.noticeLevel = message.Level
		return m, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{}
		})

	case logRecordFadeMsg:
		m.notice = ""
		return m, nil
	}

	return m, nil
}

// kickRebuild nudges the coalescing scheduler from a command instead
// of inline: the scheduler's leading edge runs its callback
// synchronously, and program.Send must not be called from Update.
func (m model) kickRebuild() tea.Cmd {
	return func() tea.Msg {
		m.eng.scheduler.Kick()
		return nil
	}
}

// handleRosterKeys processes keystrokes while the roster has focus.
func (m model) handleRosterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(message, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(message, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(message, m.keys.PageUp):
		m.moveCursor(-m.rosterView.Height)

	case key.Matches(message, m.keys.PageDown):
		m.moveCursor(m.rosterView.Height)

	case key.Matches(message, m.keys.Home):
		m.setCursor(0)

	case key.Matches(message, m.keys.End):
		m.setCursor(len(m.rows) - 1)

	case key.Matches(message, m.keys.Narrow):
		m.toggleNarrow()

	case key.Matches(message, m.keys.FilterActivate):
		m.filter.Active = true
		m.focus = focusFilter

	case key.Matches(message, m.keys.FilterClear):
		// Esc peels state back one layer: filter first, then the
		// narrow.
		if m.filter.Input != "" {
			m.filter.Clear()
			return m, m.kickRebuild()
		}
		m.narrowed = ref.UserID{}
	}
	return m, nil
}

// handleFilterKeys processes keystrokes while the filter bar has
// focus.
func (m model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, m.keys.Quit):
		// ctrl+c always quits; 'q' is a regular character here.
		if message.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		m.filter.HandleRune('q')
		return m, m.kickRebuild()

	case key.Matches(message, m.keys.FilterClear):
		// Esc: clear the text if there is any, otherwise leave
		// filter mode.
		if m.filter.Input != "" {
			m.filter.Input = ""
			return m, m.kickRebuild()
		}
		m.filter.Active = false
		m.focus = focusRoster
		return m, nil

	case message.Type == tea.KeyEnter:
		// Confirm the filter and return focus to the roster; the
		// query keeps applying.
		m.filter.Active = false
		m.focus = focusRoster
		return m, nil

	case message.Type == tea.KeyBackspace:
		if m.filter.HandleBackspace() {
			return m, m.kickRebuild()
		}
		return m, nil

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		for _, r := range message.Runes {
			m.filter.HandleRune(r)
		}
		return m, m.kickRebuild()
	}

	return m, nil
}

// handleMouse routes wheel and click events by pane. X coordinates
// left of the divider belong to the roster.
func (m *model) handleMouse(message tea.MouseMsg) {
	contentStart := m.contentStartY()
	inContent := message.Y >= contentStart && message.Y < contentStart+m.rosterView.Height
	inRoster := message.X < m.rosterWidth()
	if !inContent || !inRoster {
		return
	}

	switch message.Button {
	case tea.MouseButtonWheelUp:
		m.moveCursor(-3)
	case tea.MouseButtonWheelDown:
		m.moveCursor(3)
	case tea.MouseButtonLeft:
		if message.Action == tea.MouseActionPress {
			m.setCursor(m.rosterView.YOffset + message.Y - contentStart)
		}
	}
}

// toggleNarrow narrows to the selected user, or widens when the
// selection already is the narrow target.
func (m *model) toggleNarrow() {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return
	}
	target := m.rows[m.cursor].Record.UserID
	if m.narrowed == target {
		m.narrowed = ref.UserID{}
		return
	}
	m.narrowed = target
}

func (m *model) moveCursor(delta int) {
	m.setCursor(m.cursor + delta)
}

func (m *model) setCursor(position int) {
	if len(m.rows) == 0 {
		m.cursor = 0
		return
	}
	if position < 0 {
		position = 0
	}
	if position >= len(m.rows) {
		position = len(m.rows) - 1
	}
	m.cursor = position
	m.ensureCursorVisible()
	m.syncRosterContent()
}

func (m *model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// ensureCursorVisible adjusts the viewport offset so the cursor row
// stays inside the window.
func (m *model) ensureCursorVisible() {
	height := m.rosterView.Height
	if height <= 0 {
		return
	}
	if m.cursor < m.rosterView.YOffset {
		m.rosterView.SetYOffset(m.cursor)
	}
	if m.cursor >= m.rosterView.YOffset+height {
		m.rosterView.SetYOffset(m.cursor - height + 1)
	}
}

// rebuildRows rebuilds the visible roster from the projection. The
// projection applies the filter and ordering; rows keeps the joined
// record and person for rendering.
func (m *model) rebuildRows() {
	ids := m.eng.projection.Visible()
	rows := make([]roster.Entry, 0, len(ids))
	for _, id := range ids {
		if entry, ok := m.entryFor(id); ok {
			rows = append(rows, entry)
		}
	}
	m.rows = rows
	m.clampCursor()
	m.ensureCursorVisible()
	m.syncRosterContent()
}

// entryFor joins one user's stored record with their directory
// identity. The record can vanish between the projection read and
// this one when a replace lands in between; the caller drops the row.
func (m *model) entryFor(id ref.UserID) (roster.Entry, bool) {
	record, ok := m.eng.store.Get(id)
	if !ok {
		return roster.Entry{}, false
	}
	person, _ := m.eng.directory.Lookup(id)
	return roster.Entry{Person: person, Record: record}, true
}

// applyUserUpdate splices one user's row in or out without touching
// the rest: remove the old row, then insert the fresh entry at its
// ordered position if the user still belongs in the view. Rows stay
// in StatusThenName order, matching the projection's policy.
func (m *model) applyUserUpdate(userID ref.UserID) {
	for at, row := range m.rows {
		if row.Record.UserID == userID {
			m.rows = append(m.rows[:at], m.rows[at+1:]...)
			break
		}
	}

	entry, ok := m.entryFor(userID)
	if ok && m.eng.projection.Matches(m.filter.Text(), userID) {
		at := 0
		for at < len(m.rows) && roster.StatusThenName(m.rows[at], entry) {
			at++
		}
		m.rows = append(m.rows, roster.Entry{})
		copy(m.rows[at+1:], m.rows[at:])
		m.rows[at] = entry
	}

	m.clampCursor()
	m.syncRosterContent()
}

// rebuildHuddles re-renders the huddle pane lines from the ranker.
// The ranker is nil until the first registration names the local
// user.
func (m *model) rebuildHuddles() {
	ranker := m.eng.ranker.Load()
	if ranker == nil {
		m.huddles = nil
		return
	}
	keys := ranker.RankedKeys(m.eng.huddleLimit)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, huddle.ShortName(m.eng.directory, k))
	}
	m.huddles = lines
}

// syncRosterContent renders the roster rows into the viewport.
func (m *model) syncRosterContent() {
	width := m.rosterView.Width
	if width <= 0 {
		return
	}
	lines := make([]string, 0, len(m.rows))
	for at, row := range m.rows {
		lines = append(lines, m.renderRow(row, width, at == m.cursor))
	}
	m.rosterView.SetContent(strings.Join(lines, "\n"))
}

// renderRow renders one roster line: status glyph, display name,
// truncated to the pane. The selected row carries the selection
// background across the full width.
func (m model) renderRow(entry roster.Entry, width int, isSelected bool) string {
	if width < 6 {
		return ""
	}

	glyph := "○"
	glyphColor := m.theme.IdleStatus
	nameColor := m.theme.FaintText
	if entry.Record.Status == presence.StatusActive {
		glyph = "●"
		glyphColor = m.theme.ActiveStatus
		nameColor = m.theme.NormalText
	}

	name := ansi.Truncate(entry.Name(), width-3, "…")

	glyphStyle := lipgloss.NewStyle().Foreground(glyphColor)
	nameStyle := lipgloss.NewStyle().Foreground(nameColor)
	if isSelected {
		glyphStyle = glyphStyle.Background(m.theme.SelectedBackground)
		nameStyle = lipgloss.NewStyle().
			Foreground(m.theme.SelectedForeground).
			Background(m.theme.SelectedBackground).
			Width(width - 2)
	}

	return glyphStyle.Render(" "+glyph) + nameStyle.Render(" "+name)
}

// contentStartY returns the first content row: the chrome above is
// the header (or filter bar) plus the optional mirror banner.
func (m model) contentStartY() int {
	if m.mirrorDown {
		return 2
	}
	return 1
}

// updatePaneSizes recalculates pane dimensions after a resize or a
// chrome change (the banner appearing). Bottom chrome is the
// separator and the status bar.
func (m *model) updatePaneSizes() {
	contentHeight := m.height - m.contentStartY() - 2
	if contentHeight < 0 {
		contentHeight = 0
	}
	m.rosterView.Width = m.rosterWidth()
	m.rosterView.Height = contentHeight
	m.ensureCursorVisible()
}

// huddleVisible reports whether the terminal is wide enough for the
// huddle pane.
func (m model) huddleVisible() bool {
	return m.width >= minRosterWidth+huddlePaneWidth+1
}

// rosterWidth returns the roster pane width: everything left of the
// divider, or the full terminal when the huddle pane is hidden.
func (m model) rosterWidth() int {
	if !m.huddleVisible() {
		return m.width
	}
	return m.width - huddlePaneWidth - 1
}

// View implements tea.Model.
func (m model) View() string {
	if !m.ready {
		return "Connecting..."
	}

	var sections []string

	// Top chrome: the filter bar replaces the header when visible so
	// the layout doesn't shift.
	filterView := m.filter.View(m.theme, m.width)
	if filterView != "" {
		sections = append(sections, filterView)
	} else {
		sections = append(sections, m.renderHeader())
	}

	if m.mirrorDown {
		sections = append(sections, m.renderBanner())
	}

	rosterPane := m.rosterView.View()
	if m.huddleVisible() {
		content := lipgloss.JoinHorizontal(lipgloss.Top,
			rosterPane, m.renderDivider(), m.renderHuddlePane())
		sections = append(sections, content)
	} else {
		sections = append(sections, rosterPane)
	}

	separator := lipgloss.NewStyle().
		Foreground(m.theme.BorderColor).
		Render(strings.Repeat("─", m.width))
	sections = append(sections, separator)

	sections = append(sections, m.renderStatusBar())

	return strings.Join(sections, "\n")
}

// renderHeader renders the top line: the app name on the left, the
// narrow indicator when one is set, and the roster counts on the
// right, joined by separator fill.
func (m model) renderHeader() string {
	separatorStyle := lipgloss.NewStyle().Foreground(m.theme.BorderColor)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground)
	statsStyle := lipgloss.NewStyle().Foreground(m.theme.FaintText)

	sep := separatorStyle.Render("─")

	left := sep + sep + sep + " " + titleStyle.Render("Hearth") + " "
	leftWidth := 3 + 1 + len("Hearth") + 1

	if !m.narrowed.IsZero() {
		label := "narrowed: " + m.displayName(m.narrowed)
		left += sep + " " + statsStyle.Render(label) + " "
		leftWidth += 1 + 1 + lipgloss.Width(label) + 1
	}

	active := 0
	for _, row := range m.rows {
		if row.Record.Status == presence.StatusActive {
			active++
		}
	}
	statsText := fmt.Sprintf("%d shown  %d active", len(m.rows), active)
	right := " " + statsStyle.Render(statsText) + " " + sep
	rightWidth := 1 + lipgloss.Width(statsText) + 1 + 1

	fillCount := m.width - leftWidth - rightWidth
	if fillCount < 1 {
		fillCount = 1
	}
	return left + separatorStyle.Render(strings.Repeat("─", fillCount)) + right
}

// renderBanner renders the mirror-down warning line.
func (m model) renderBanner() string {
	style := lipgloss.NewStyle().
		Background(m.theme.BannerBackground).
		Foreground(m.theme.BannerForeground).
		Width(m.width)
	return style.Render(" presence mirror is not running: statuses may be stale")
}

// renderDivider renders the vertical line between the panes.
func (m model) renderDivider() string {
	height := m.rosterView.Height
	if height < 0 {
		height = 0
	}
	style := lipgloss.NewStyle().Foreground(m.theme.BorderColor)
	lines := make([]string, height)
	for at := range lines {
		lines[at] = "│"
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderHuddlePane renders the recent-conversations pane: a title,
// then one compact participant list per huddle, newest first.
func (m model) renderHuddlePane() string {
	height := m.rosterView.Height
	if height <= 0 {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground)
	lineStyle := lipgloss.NewStyle().Foreground(m.theme.NormalText)
	emptyStyle := lipgloss.NewStyle().Foreground(m.theme.FaintText)

	lines := make([]string, 0, height)
	lines = append(lines, titleStyle.Render(" Recent huddles"))
	if len(m.huddles) == 0 {
		lines = append(lines, emptyStyle.Render(" none yet"))
	}
	for _, conversation := range m.huddles {
		if len(lines) >= height {
			break
		}
		line := ansi.Truncate(" "+conversation, huddlePaneWidth-1, "…")
		lines = append(lines, lineStyle.Render(line))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lipgloss.NewStyle().Width(huddlePaneWidth).Render(strings.Join(lines, "\n"))
}

// renderStatusBar renders the bottom line: a fading log notice when
// one is live, the key help otherwise.
func (m model) renderStatusBar() string {
	if m.notice != "" {
		color := m.theme.WarnText
		if m.noticeLevel >= slog.LevelError {
			color = m.theme.ErrorText
		}
		notice := ansi.Truncate(" "+m.notice, m.width, "…")
		return lipgloss.NewStyle().Foreground(color).Render(notice)
	}

	focusIndicator := "ROSTER"
	if m.focus == focusFilter {
		focusIndicator = "FILTER"
	}
	help := fmt.Sprintf(" [%s] q quit  ↑↓ navigate  enter narrow  / filter  esc clear",
		focusIndicator)

	position := ""
	if len(m.rows) > 0 {
		position = fmt.Sprintf("%d/%d ", m.cursor+1, len(m.rows))
	}

	style := lipgloss.NewStyle().Foreground(m.theme.HelpText)
	gap := m.width - lipgloss.Width(help) - lipgloss.Width(position)
	if gap < 1 {
		return style.Render(help)
	}
	return style.Render(help + strings.Repeat(" ", gap) + position)
}

// displayName resolves a user id for chrome display.
func (m model) displayName(id ref.UserID) string {
	if person, ok := m.eng.directory.Lookup(id); ok && person.Name != "" {
		return person.Name
	}
	return id.String()
}
