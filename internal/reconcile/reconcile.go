// Package reconcile folds changes made by other processes into a Board.
//
// Every pass re-reads the three store files and drops from pending whatever
// already appears in approved or removed. This is poll-based and
// last-writer-wins: two writers racing inside one interval can still
// duplicate or lose a decision until writers stop.
package reconcile

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kingrea/retro-wall/internal/logbook"
	"github.com/kingrea/retro-wall/internal/moderation"
	"github.com/kingrea/retro-wall/internal/quote"
	"github.com/kingrea/retro-wall/internal/store"
)

// DefaultInterval is how often the interaction loop runs a pass.
const DefaultInterval = 2 * time.Second

// Result describes one pass.
type Result struct {
	// Changed is true when the board was replaced with fresh lists.
	Changed bool
	// Before and After are the in-memory pending sizes around the pass.
	Before int
	After  int
	// NewSubmissions counts pending growth seen on disk.
	NewSubmissions int
	// Healed counts stale pending entries dropped from the pending file.
	Healed int
}

// Effective returns the pending quotes that are in neither approved nor
// removed, in their original order.
func Effective(pending, approved, removed []quote.Quote) []quote.Quote {
	out := make([]quote.Quote, 0, len(pending))
	for _, q := range pending {
		if quote.Contains(approved, q) || quote.Contains(removed, q) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Engine runs reconciliation passes against one board.
type Engine struct {
	board  *moderation.Board
	stores *store.Set
	audit  *logbook.Logbook
	logger *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger overrides the default discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLogbook records self-healing rewrites in the audit trail.
func WithLogbook(lb *logbook.Logbook) Option {
	return func(e *Engine) {
		e.audit = lb
	}
}

// New builds an engine reading the same stores the board writes.
func New(board *moderation.Board, opts ...Option) *Engine {
	e := &Engine{
		board:  board,
		stores: board.Stores(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs one pass. A malformed store is returned as *store.ParseError
// and leaves the board untouched.
func (e *Engine) Run() (Result, error) {
	snap, err := e.stores.LoadAll()
	if err != nil {
		return Result{}, fmt.Errorf("reconcile: %w", err)
	}
	effective := Effective(snap.Pending, snap.Approved, snap.Removed)
	res := Result{
		Before: len(e.board.Pending()),
		After:  len(effective),
		Healed: len(snap.Pending) - len(effective),
	}
	if res.After == res.Before {
		// Same size: nothing is folded in and the pending file is left alone.
		res.Healed = 0
		return res, nil
	}

	e.board.Replace(store.Snapshot{
		Pending:  effective,
		Approved: snap.Approved,
		Removed:  snap.Removed,
	})
	res.Changed = true
	if res.After > res.Before {
		res.NewSubmissions = res.After - res.Before
	}
	if err := e.stores.Pending.Save(effective); err != nil {
		e.logger.Warn("rewrite pending after reconcile", slog.Any("error", err))
	}
	if res.Healed > 0 {
		e.audit.Info("%-7s dropped %d already moderated quote(s) from pending", logbook.ActionHeal, res.Healed)
	}
	e.logger.Info("reconciled",
		slog.Int("before", res.Before),
		slog.Int("after", res.After),
		slog.Int("new", res.NewSubmissions),
		slog.Int("healed", res.Healed),
	)
	return res, nil
}
