// Package feedback provides the optional audible cue played when a quote is
// submitted or moderated. Callers hold a Sink and never learn which variant
// is behind it.
package feedback

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var ttyPath = "/dev/tty"

// Mode selects a Sink implementation.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeNone   Mode = "none"
	ModeBell   Mode = "bell"
	ModeBuzzer Mode = "buzzer"
)

// Sink receives success and entry events.
type Sink interface {
	// Success marks a completed moderation action.
	Success()
	// Entry marks a new submission.
	Entry()
	// Close releases hardware and leaves it silent.
	Close() error
}

// Nop ignores every event.
type Nop struct{}

func (Nop) Success()     {}
func (Nop) Entry()       {}
func (Nop) Close() error { return nil }

// Bell writes the ASCII BEL character to the terminal.
//
// The TUI renderer owns stdout, so a Bell created without a writer opens
// its own handle on the controlling terminal. The renderer flushes each
// frame in one write and BEL moves no cursor, so a ring lands between
// frames and never inside one.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// NewBell returns a Bell writing to w. A nil w means /dev/tty, or stderr
// when there is no controlling terminal.
func NewBell(w io.Writer) *Bell {
	if w != nil {
		return &Bell{w: w}
	}
	tty, err := os.OpenFile(ttyPath, os.O_WRONLY, 0)
	if err != nil {
		return &Bell{w: os.Stderr}
	}
	return &Bell{w: tty, c: tty}
}

func (b *Bell) Success() { b.ring(1) }
func (b *Bell) Entry()   { b.ring(2) }

// Close releases the terminal handle opened by NewBell.
func (b *Bell) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.c == nil {
		return nil
	}
	err := b.c.Close()
	b.c = nil
	b.w = io.Discard
	return err
}

func (b *Bell) ring(times int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = io.WriteString(b.w, strings.Repeat("\a", times))
}

// Options configures FromConfig.
type Options struct {
	Mode         Mode
	GPIOPin      int
	BeepDuration time.Duration
	Logger       *slog.Logger
}

// FromConfig picks a Sink. Auto uses the buzzer on a Raspberry Pi and stays
// silent elsewhere. A buzzer that cannot be opened degrades to Nop.
func FromConfig(opts Options) (Sink, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	switch Mode(strings.ToLower(strings.TrimSpace(string(opts.Mode)))) {
	case ModeNone:
		return Nop{}, nil
	case ModeBell:
		return NewBell(nil), nil
	case ModeBuzzer:
		bz, err := OpenBuzzer(opts.GPIOPin, opts.BeepDuration)
		if err != nil {
			return nil, fmt.Errorf("feedback: open buzzer: %w", err)
		}
		return bz, nil
	case ModeAuto, "":
		if !IsRaspberryPi() {
			return Nop{}, nil
		}
		bz, err := OpenBuzzer(opts.GPIOPin, opts.BeepDuration)
		if err != nil {
			logger.Warn("buzzer unavailable, continuing silently", slog.Any("error", err))
			return Nop{}, nil
		}
		return bz, nil
	default:
		return nil, fmt.Errorf("feedback: unknown mode %q", opts.Mode)
	}
}
