// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package roster projects the presence store into the ordered,
// filtered user list a roster display should show. The projection
// itself renders nothing: it answers "who is visible, in what order"
// and "does this one user still belong", and the Scheduler paces how
// often a consumer rebuilds from bulk changes.
package roster

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/hearth-chat/hearth/directory"
	"github.com/hearth-chat/hearth/lib/fuzzy"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/presence"
)

// TextSource supplies the current search text. The UI's filter input
// implements it; the projection reads it at query time rather than
// being told about every keystroke.
type TextSource interface {
	Text() string
}

// TextFunc adapts a function to TextSource.
type TextFunc func() string

// Text implements TextSource.
func (f TextFunc) Text() string { return f() }

// Entry pairs a user's directory identity with their presence
// record. Order policies see both.
type Entry struct {
	Person directory.Person
	Record presence.Record
}

// Name returns the entry's display name, the raw id when the
// directory has none.
func (e Entry) Name() string {
	if e.Person.Name != "" {
		return e.Person.Name
	}
	return e.Record.UserID.String()
}

// Order reports whether a sorts before b.
type Order func(a, b Entry) bool

// StatusThenName is the stock ordering: active users before idle,
// then case-insensitive name, then id as the final tie-break.
func StatusThenName(a, b Entry) bool {
	if a.Record.Status != b.Record.Status {
		return a.Record.Status == presence.StatusActive
	}
	nameA, nameB := strings.ToLower(a.Name()), strings.ToLower(b.Name())
	if nameA != nameB {
		return nameA < nameB
	}
	return a.Record.UserID.Less(b.Record.UserID)
}

// ProjectionConfig configures a Projection. Store is required;
// Directory defaults to an empty one, Order to StatusThenName,
// Logger to slog.Default().
type ProjectionConfig struct {
	Store     *presence.Store
	Directory directory.Directory
	Order     Order
	Logger    *slog.Logger
}

// Projection is the read model over the presence store: it combines
// records with directory identities, applies the filter policy, and
// orders the result. Full rebuilds (Visible) are for bulk events;
// Matches answers the single-user question an incremental update
// needs.
type Projection struct {
	store     *presence.Store
	directory directory.Directory
	order     Order
	logger    *slog.Logger

	mu      sync.Mutex
	source  TextSource
	warned  bool
	matcher *fuzzy.Matcher
}

// NewProjection constructs a Projection.
func NewProjection(cfg ProjectionConfig) *Projection {
	p := &Projection{
		store:     cfg.Store,
		directory: cfg.Directory,
		order:     cfg.Order,
		logger:    cfg.Logger,
		matcher:   fuzzy.NewMatcher(),
	}
	if p.directory == nil {
		p.directory = directory.NewStatic()
	}
	if p.order == nil {
		p.order = StatusThenName
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// SetTextSource attaches the search widget the projection reads
// filter text from.
func (p *Projection) SetTextSource(source TextSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = source
}

// FilterText returns the current search text. Before a source is
// attached this is the empty string, with a single diagnostic warning
// rather than an error: a roster queried during startup should show
// everyone, not fail.
func (p *Projection) FilterText() string {
	p.mu.Lock()
	source := p.source
	if source == nil && !p.warned {
		p.warned = true
		p.logger.Warn("filter text requested before a source was attached, treating as empty")
	}
	p.mu.Unlock()

	if source == nil {
		return ""
	}
	// Outside the lock: the source belongs to the UI and may take
	// its own locks.
	return source.Text()
}

// VisibleUserIDs returns every stored user passing pred, in the
// projection's order. A nil pred admits everyone.
func (p *Projection) VisibleUserIDs(pred func(ref.UserID) bool) []ref.UserID {
	entries := p.entries()
	if pred != nil {
		kept := entries[:0]
		for _, entry := range entries {
			if pred(entry.Record.UserID) {
				kept = append(kept, entry)
			}
		}
		entries = kept
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return p.order(entries[i], entries[j])
	})

	ids := make([]ref.UserID, len(entries))
	for i, entry := range entries {
		ids[i] = entry.Record.UserID
	}
	return ids
}

// Visible returns the users passing the current filter text, in
// order. This is the full-rebuild path.
func (p *Projection) Visible() []ref.UserID {
	query := p.FilterText()
	return p.VisibleUserIDs(func(id ref.UserID) bool {
		return p.Matches(query, id)
	})
}

// Matches reports whether one user belongs in the roster filtered by
// filterText. Incremental updates use this to insert, move, or drop a
// single row without rebuilding the whole list.
func (p *Projection) Matches(filterText string, userID ref.UserID) bool {
	person, _ := p.directory.Lookup(userID)
	name := person.Name
	if name == "" {
		name = userID.String()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return matchQuery(p.matcher, filterText, name, person.Email)
}

// entries snapshots the store joined with the directory.
func (p *Projection) entries() []Entry {
	records := p.store.All()
	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		person, _ := p.directory.Lookup(record.UserID)
		entries = append(entries, Entry{Person: person, Record: record})
	}
	return entries
}
