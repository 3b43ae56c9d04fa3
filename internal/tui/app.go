// internal/tui/app.go
//
// This is the interaction loop for the wall. It uses bubbletea, which
// follows The Elm Architecture:
//
// 1. Model: the App below, holding every piece of UI state
// 2. Update: the only place state changes, one message at a time
// 3. View: renders the current state to a string
//
// bubbletea hands messages to Update on a single goroutine, so the board is
// only ever touched from there. Three clocks drive the loop: a short frame
// tick for animation and redraw, a reconcile tick that folds in other
// processes' edits, and the key stream.

package tui

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/retro-wall/internal/logbook"
	"github.com/kingrea/retro-wall/internal/moderation"
	"github.com/kingrea/retro-wall/internal/quote"
	"github.com/kingrea/retro-wall/internal/reconcile"
)

// Mode selects the start screen and what ESC does in the admin panel.
type Mode string

const (
	// ModeKiosk starts on the public display; ctrl+p opens the admin panel.
	ModeKiosk Mode = "kiosk"
	// ModeAdmin runs only the admin panel; ESC leaves the program.
	ModeAdmin Mode = "admin"
)

// appState represents which "screen" we're on
type appState int

const (
	stateDisplay appState = iota // Rotating approved quotes
	stateSubmit                  // Two-step submission form
	stateAdmin                   // Pending quote moderation
)

const (
	defaultPollTimeout     = 100 * time.Millisecond
	defaultNoticeDuration  = 2 * time.Second
	defaultRotateInterval  = 5 * time.Second
	defaultTypewriterDelay = 30 * time.Millisecond
	auditTailLines         = 4
)

// Options carries the loop settings resolved from configuration.
type Options struct {
	Mode              Mode
	Title             string
	ReconcileInterval time.Duration
	PollTimeout       time.Duration
	NoticeDuration    time.Duration
	RotateInterval    time.Duration
	TypewriterDelay   time.Duration
	ExitKey           string
	Limits            quote.Limits
	Logbook           *logbook.Logbook
	Logger            *slog.Logger
	// Width and Height seed the layout until the first WindowSizeMsg.
	Width  int
	Height int
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeKiosk
	}
	if o.Title == "" {
		o.Title = "Retro Wall"
	}
	if o.ReconcileInterval <= 0 {
		o.ReconcileInterval = reconcile.DefaultInterval
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = defaultPollTimeout
	}
	if o.NoticeDuration < 0 {
		o.NoticeDuration = 0
	} else if o.NoticeDuration == 0 {
		o.NoticeDuration = defaultNoticeDuration
	}
	if o.RotateInterval <= 0 {
		o.RotateInterval = defaultRotateInterval
	}
	if o.TypewriterDelay < 0 {
		o.TypewriterDelay = defaultTypewriterDelay
	}
	if o.Limits.MaxName <= 0 || o.Limits.MaxText <= 0 {
		o.Limits = quote.DefaultLimits()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithClock overrides the clock used for notices and animation.
func WithClock(now func() time.Time) AppOption {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// WithRand fixes the source used to pick the next displayed quote.
func WithRand(r *rand.Rand) AppOption {
	return func(a *App) {
		if r != nil {
			a.deck.rnd = r
		}
	}
}

type frameMsg time.Time

type reconcileMsg time.Time

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	opts    Options
	board   *moderation.Board
	engine  *reconcile.Engine
	logbook *logbook.Logbook
	logger  *slog.Logger
	keys    keyMap
	help    help.Model
	now     func() time.Time

	width  int
	height int

	// Display screen
	deck       *rotation
	current    quote.Quote
	shownAt    time.Time
	revealed   int
	nextRotate time.Time

	form submitForm

	notice      string
	noticeUntil time.Time

	exitRequested bool
	err           error
}

// NewApp creates the loop around an opened board. engine may be nil, in
// which case no reconciliation runs.
func NewApp(board *moderation.Board, engine *reconcile.Engine, opts Options, extra ...AppOption) *App {
	opts = opts.withDefaults()
	a := &App{
		opts:    opts,
		board:   board,
		engine:  engine,
		logbook: opts.Logbook,
		logger:  opts.Logger,
		keys:    newKeyMap(opts.ExitKey),
		help:    help.New(),
		now:     time.Now,
		width:   opts.Width,
		height:  opts.Height,
		deck:    newRotation(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))),
	}
	for _, opt := range extra {
		if opt != nil {
			opt(a)
		}
	}
	if opts.Mode == ModeAdmin {
		a.state = stateAdmin
	} else {
		a.state = stateDisplay
		a.pickQuote(a.now())
	}
	return a
}

// Err returns the error that ended the loop, if any.
func (a *App) Err() error {
	return a.err
}

// ExitRequested reports whether the operator used the exit combination.
func (a *App) ExitRequested() bool {
	return a.exitRequested
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.scheduleFrame(), a.scheduleReconcile())
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.form.setWidth(msg.Width)
		return a, nil

	case frameMsg:
		a.onFrame(time.Time(msg))
		return a, a.scheduleFrame()

	case reconcileMsg:
		if err := a.reconcile(); err != nil {
			return a, tea.Quit
		}
		return a, a.scheduleReconcile()

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.Interrupt) {
			return a, nil
		}
		switch a.state {
		case stateSubmit:
			return a.updateSubmit(msg)
		case stateAdmin:
			return a.updateAdmin(msg)
		default:
			return a.updateDisplay(msg)
		}
	}

	if a.state == stateSubmit {
		return a, a.form.update(msg)
	}
	return a, nil
}

func (a *App) scheduleFrame() tea.Cmd {
	return tea.Tick(a.opts.PollTimeout, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (a *App) scheduleReconcile() tea.Cmd {
	if a.engine == nil {
		return nil
	}
	return tea.Tick(a.opts.ReconcileInterval, func(t time.Time) tea.Msg {
		return reconcileMsg(t)
	})
}

func (a *App) onFrame(now time.Time) {
	a.advanceTypewriter(now)
	if a.notice != "" && !now.Before(a.noticeUntil) {
		a.notice = ""
	}
	if a.state == stateDisplay && !now.Before(a.nextRotate) {
		a.pickQuote(now)
	}
}

func (a *App) reconcile() error {
	if a.engine == nil {
		return nil
	}
	res, err := a.engine.Run()
	if err != nil {
		a.err = err
		a.logger.Error("reconcile failed, stopping", slog.Any("error", err))
		return err
	}
	if res.NewSubmissions > 0 {
		a.setNotice(fmt.Sprintf("%d new %s awaiting review", res.NewSubmissions, plural(res.NewSubmissions, "quote", "quotes")))
	}
	return nil
}

func (a *App) updateDisplay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Exit):
		return a.requestExit()
	case key.Matches(msg, a.keys.Admin):
		a.state = stateAdmin
		return a, nil
	case key.Matches(msg, a.keys.Submit):
		return a.beginSubmit()
	}
	return a, nil
}

func (a *App) updateAdmin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Exit):
		return a.requestExit()
	case key.Matches(msg, a.keys.Back):
		if a.opts.Mode == ModeAdmin {
			return a, tea.Quit
		}
		return a.returnToDisplay()
	case key.Matches(msg, a.keys.Prev):
		a.board.Prev()
	case key.Matches(msg, a.keys.Next):
		a.board.Next()
	case key.Matches(msg, a.keys.Approve):
		a.moderate(true)
	case key.Matches(msg, a.keys.Reject):
		a.moderate(false)
	}
	return a, nil
}

func (a *App) moderate(approve bool) {
	var (
		q    quote.Quote
		err  error
		verb = "Approved"
	)
	if approve {
		q, err = a.board.ApproveSelected()
	} else {
		q, err = a.board.RejectSelected()
		verb = "Removed"
	}
	switch {
	case errors.Is(err, moderation.ErrNoSelection):
		return
	case err != nil && quote.Contains(a.board.Pending(), q):
		a.setNotice("Saving failed; the quote is still pending. Try again.")
		return
	case err != nil:
		a.setNotice(fmt.Sprintf("%s, but the pending list was not rewritten", verb))
		return
	}
	a.setNotice(fmt.Sprintf("%s %q by %s", verb, q.Text, q.Name))
}

func (a *App) beginSubmit() (tea.Model, tea.Cmd) {
	a.form = newSubmitForm(a.opts.Limits, a.width)
	a.state = stateSubmit
	return a, a.form.start()
}

func (a *App) updateSubmit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back):
		return a.returnToDisplay()
	case key.Matches(msg, a.keys.Confirm):
		if a.form.step == stepName {
			return a, a.form.advance()
		}
		name, text := a.form.values()
		q, ok, err := a.board.Submit(name, text)
		switch {
		case err != nil:
			a.logger.Warn("submission not saved", slog.Any("error", err))
			a.setNotice("Sorry, that did not go through. Please try again.")
		case ok:
			a.setNotice(fmt.Sprintf("Thanks, %s! Your quote is awaiting review.", q.Name))
		}
		return a.returnToDisplay()
	}
	return a, a.form.update(msg)
}

func (a *App) returnToDisplay() (tea.Model, tea.Cmd) {
	a.form.blur()
	a.state = stateDisplay
	a.pickQuote(a.now())
	return a, nil
}

func (a *App) requestExit() (tea.Model, tea.Cmd) {
	a.exitRequested = true
	a.logger.Info("exit combination pressed")
	return a, tea.Quit
}

func (a *App) setNotice(text string) {
	a.notice = text
	a.noticeUntil = a.now().Add(a.opts.NoticeDuration)
}

func (a *App) pickQuote(now time.Time) {
	approved := a.board.Approved()
	if idx := a.deck.next(len(approved)); idx >= 0 {
		a.current = approved[idx]
	} else {
		a.current = quote.Quote{Name: "System", Text: "No approved quotes available!"}
	}
	a.shownAt = now
	a.revealed = 0
	a.advanceTypewriter(now)
	a.nextRotate = now.Add(a.typingDuration() + a.opts.RotateInterval)
}

func (a *App) typingDuration() time.Duration {
	return time.Duration(len([]rune(a.current.Text))) * a.opts.TypewriterDelay
}

func (a *App) advanceTypewriter(now time.Time) {
	total := len([]rune(a.current.Text))
	if a.opts.TypewriterDelay <= 0 {
		a.revealed = total
		return
	}
	n := int(now.Sub(a.shownAt) / a.opts.TypewriterDelay)
	a.revealed = min(max(n, 0), total)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// rotation picks approved quotes at random without repeats until every
// quote has been shown once.
type rotation struct {
	rnd   *rand.Rand
	shown map[int]struct{}
	size  int
}

func newRotation(rnd *rand.Rand) *rotation {
	return &rotation{rnd: rnd, shown: map[int]struct{}{}}
}

func (r *rotation) next(n int) int {
	if n <= 0 {
		return -1
	}
	if n < r.size || len(r.shown) >= n {
		clear(r.shown)
	}
	r.size = n
	available := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if _, ok := r.shown[i]; !ok {
			available = append(available, i)
		}
	}
	pick := available[r.rnd.IntN(len(available))]
	r.shown[pick] = struct{}{}
	return pick
}
