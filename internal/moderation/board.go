// Package moderation holds the three quote lists and the transitions between
// them.
//
// A quote enters pending on submission and leaves it exactly once, to
// approved or removed. approved and removed only ever grow by appending.
//
// Board is not safe for concurrent use. The interaction loop is its only
// caller and runs on a single goroutine.
package moderation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kingrea/retro-wall/internal/feedback"
	"github.com/kingrea/retro-wall/internal/logbook"
	"github.com/kingrea/retro-wall/internal/quote"
	"github.com/kingrea/retro-wall/internal/store"
)

var (
	// ErrNoSelection is returned when a transition is requested with nothing pending.
	ErrNoSelection = errors.New("moderation: no pending quote selected")
	// ErrIndexOutOfRange is returned for an index outside pending.
	ErrIndexOutOfRange = errors.New("moderation: index out of range")
)

// DefaultWelcome is shown when nothing has been approved yet. It is never
// written to disk.
var DefaultWelcome = quote.Quote{Name: "System", Text: "Welcome to the Retro Wall!"}

// Board is the in-memory view of the three lists plus the admin cursor.
type Board struct {
	stores   *store.Set
	sink     feedback.Sink
	audit    *logbook.Logbook
	logger   *slog.Logger
	welcome  quote.Quote
	limits   quote.Limits
	pending  []quote.Quote
	approved []quote.Quote
	removed  []quote.Quote
	// synthetic is true while approved holds only the in-memory welcome quote.
	synthetic bool
	cursor    int
}

// Option customizes a Board.
type Option func(*Board)

// WithFeedback sets the sink notified after submissions and decisions.
func WithFeedback(sink feedback.Sink) Option {
	return func(b *Board) {
		if sink != nil {
			b.sink = sink
		}
	}
}

// WithLogbook records every transition in the audit trail.
func WithLogbook(lb *logbook.Logbook) Option {
	return func(b *Board) {
		b.audit = lb
	}
}

// WithLogger overrides the default discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithWelcome replaces the placeholder quote used when approved is empty.
func WithWelcome(q quote.Quote) Option {
	return func(b *Board) {
		if q.Name != "" && q.Text != "" {
			b.welcome = q
		}
	}
}

// WithLimits sets the field caps applied to submissions.
func WithLimits(l quote.Limits) Option {
	return func(b *Board) {
		b.limits = l
	}
}

// Open creates any missing store files and loads the three lists.
func Open(stores *store.Set, opts ...Option) (*Board, error) {
	if stores == nil {
		return nil, fmt.Errorf("moderation: store set is required")
	}
	b := &Board{
		stores:  stores,
		sink:    feedback.Nop{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		welcome: DefaultWelcome,
		limits:  quote.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := stores.Ensure(); err != nil {
		return nil, fmt.Errorf("moderation: init stores: %w", err)
	}
	snap, err := stores.LoadAll()
	if err != nil {
		return nil, err
	}
	b.Replace(snap)
	b.logger.Info("board opened",
		slog.Int("pending", len(b.pending)),
		slog.Int("approved", len(b.approved)),
		slog.Int("removed", len(b.removed)),
	)
	return b, nil
}

// Stores returns the store set the board persists to.
func (b *Board) Stores() *store.Set {
	return b.stores
}

// Pending returns a copy of the pending list.
func (b *Board) Pending() []quote.Quote { return quote.Clone(b.pending) }

// Approved returns a copy of the approved list, including the welcome
// placeholder when nothing real has been approved.
func (b *Board) Approved() []quote.Quote { return quote.Clone(b.approved) }

// Removed returns a copy of the removed list.
func (b *Board) Removed() []quote.Quote { return quote.Clone(b.removed) }

// Counts reports list sizes. The welcome placeholder is not counted.
func (b *Board) Counts() (pending, approved, removed int) {
	approved = len(b.approved)
	if b.synthetic {
		approved = 0
	}
	return len(b.pending), approved, len(b.removed)
}

// Cursor returns the selected index into pending.
func (b *Board) Cursor() int {
	return b.cursor
}

// Selected returns the pending quote under the cursor.
func (b *Board) Selected() (quote.Quote, bool) {
	if len(b.pending) == 0 {
		return quote.Quote{}, false
	}
	return b.pending[b.cursor], true
}

// Next moves the cursor forward, wrapping at the end.
func (b *Board) Next() {
	if n := len(b.pending); n > 0 {
		b.cursor = (b.cursor + 1) % n
	}
}

// Prev moves the cursor back, wrapping at the start.
func (b *Board) Prev() {
	if n := len(b.pending); n > 0 {
		b.cursor = (b.cursor - 1 + n) % n
	}
}

// Replace swaps in lists read from disk and re-clamps the cursor.
func (b *Board) Replace(snap store.Snapshot) {
	b.pending = nonNil(snap.Pending)
	b.removed = nonNil(snap.Removed)
	b.approved = nonNil(snap.Approved)
	b.synthetic = false
	if len(b.approved) == 0 {
		b.approved = []quote.Quote{b.welcome}
		b.synthetic = true
	}
	b.clampCursor()
}

func (b *Board) clampCursor() {
	switch {
	case len(b.pending) == 0:
		b.cursor = 0
	case b.cursor >= len(b.pending):
		b.cursor = len(b.pending) - 1
	case b.cursor < 0:
		b.cursor = 0
	}
}

func nonNil(list []quote.Quote) []quote.Quote {
	if list == nil {
		return []quote.Quote{}
	}
	return list
}
