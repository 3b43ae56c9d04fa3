package moderation

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kingrea/retro-wall/internal/logbook"
	"github.com/kingrea/retro-wall/internal/quote"
	"github.com/kingrea/retro-wall/internal/store"
)

// Approve moves pending[index] to the end of approved and persists both lists.
func (b *Board) Approve(index int) (quote.Quote, error) {
	return b.move(index, store.Approved)
}

// Reject moves pending[index] to the end of removed and persists both lists.
func (b *Board) Reject(index int) (quote.Quote, error) {
	return b.move(index, store.Removed)
}

// ApproveSelected approves the quote under the cursor.
func (b *Board) ApproveSelected() (quote.Quote, error) {
	return b.Approve(b.cursor)
}

// RejectSelected rejects the quote under the cursor.
func (b *Board) RejectSelected() (quote.Quote, error) {
	return b.Reject(b.cursor)
}

// move saves the destination with the quote appended, then pending without
// it. A failed destination save leaves memory and both files as they were.
// A failed pending save after that leaves the quote in both files; every
// reconciliation filters it out of pending.
func (b *Board) move(index int, dest store.ID) (quote.Quote, error) {
	if len(b.pending) == 0 {
		return quote.Quote{}, ErrNoSelection
	}
	if index < 0 || index >= len(b.pending) {
		return quote.Quote{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, len(b.pending))
	}
	q := b.pending[index]

	action := logbook.ActionApprove
	var destList []quote.Quote
	switch dest {
	case store.Approved:
		if !b.synthetic {
			destList = quote.Clone(b.approved)
		}
	case store.Removed:
		destList = quote.Clone(b.removed)
		action = logbook.ActionReject
	default:
		return quote.Quote{}, fmt.Errorf("moderation: cannot move to %s", dest)
	}
	destList = append(destList, q)

	if err := b.stores.Get(dest).Save(destList); err != nil {
		b.audit.Warn("%-7s %q by %s not saved: %v", action, q.Text, q.Name, err)
		b.logger.Error("persist moderation decision",
			slog.String("to", string(dest)),
			slog.String("id", q.ID),
			slog.Any("error", err),
		)
		return q, fmt.Errorf("moderation: persist %s: %w", dest, err)
	}

	if dest == store.Approved {
		b.approved = destList
		b.synthetic = false
	} else {
		b.removed = destList
	}
	b.pending = append(b.pending[:index:index], b.pending[index+1:]...)
	if b.cursor >= len(b.pending) {
		b.cursor = max(0, len(b.pending)-1)
	}
	b.audit.Record(action, q.Name, q.Text)
	b.sink.Success()

	if err := b.stores.Pending.Save(b.pending); err != nil {
		b.audit.Error("pending not rewritten after %s of %q: %v", action, q.Text, err)
		b.logger.Error("persist pending after decision",
			slog.String("to", string(dest)),
			slog.String("id", q.ID),
			slog.Any("error", err),
		)
		return q, fmt.Errorf("moderation: persist %s: %w", store.Pending, err)
	}
	b.logger.Info("quote moderated",
		slog.String("to", string(dest)),
		slog.String("id", q.ID),
		slog.String("name", q.Name),
		slog.Int("pending", len(b.pending)),
	)
	return q, nil
}

// Submit appends a new quote to pending and persists it. Blank fields make
// it a no-op that writes nothing and reports ok == false without an error.
// When the save fails the quote is dropped again and ok is false.
func (b *Board) Submit(name, text string) (quote.Quote, bool, error) {
	name, text, err := quote.Prepare(name, text, b.limits)
	if err != nil {
		if errors.Is(err, quote.ErrEmpty) {
			return quote.Quote{}, false, nil
		}
		return quote.Quote{}, false, err
	}
	q := quote.New(name, text)
	next := append(quote.Clone(b.pending), q)
	if err := b.stores.Pending.Save(next); err != nil {
		b.audit.Warn("%-7s %q by %s not saved: %v", logbook.ActionSubmit, q.Text, q.Name, err)
		b.logger.Error("persist submission", slog.String("id", q.ID), slog.Any("error", err))
		return q, false, fmt.Errorf("moderation: persist submission: %w", err)
	}
	b.pending = next
	b.audit.Record(logbook.ActionSubmit, q.Name, q.Text)
	b.sink.Entry()
	b.logger.Info("quote submitted", slog.String("id", q.ID), slog.String("name", q.Name))
	return q, true, nil
}
