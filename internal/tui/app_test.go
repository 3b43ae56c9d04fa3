package tui

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/retro-wall/internal/moderation"
	"github.com/kingrea/retro-wall/internal/quote"
	"github.com/kingrea/retro-wall/internal/reconcile"
	"github.com/kingrea/retro-wall/internal/store"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestBoard(t *testing.T, pending ...quote.Quote) *moderation.Board {
	t.Helper()
	stores := store.NewSet(t.TempDir(), store.DefaultFileNames())
	if err := stores.Ensure(); err != nil {
		t.Fatalf("ensure stores: %v", err)
	}
	if err := stores.Pending.Save(pending); err != nil {
		t.Fatalf("seed pending: %v", err)
	}
	board, err := moderation.Open(stores)
	if err != nil {
		t.Fatalf("open board: %v", err)
	}
	return board
}

func newTestApp(t *testing.T, board *moderation.Board, mode Mode) (*App, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)}
	app := NewApp(board, reconcile.New(board), Options{
		Mode:            mode,
		TypewriterDelay: 10 * time.Millisecond,
		Width:           100,
		Height:          30,
	}, WithClock(clock.Now), WithRand(rand.New(rand.NewPCG(1, 2))))
	return app, clock
}

func press(t *testing.T, app *App, msg tea.KeyMsg) (*App, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(msg)
	next, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	return next, cmd
}

func typeText(t *testing.T, app *App, text string) *App {
	t.Helper()
	for _, r := range text {
		app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return app
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestExitKeyQuitsFromDisplay(t *testing.T) {
	app, _ := newTestApp(t, newTestBoard(t), ModeKiosk)
	app, cmd := press(t, app, runes(")"))
	if !isQuit(cmd) {
		t.Fatalf("exit key must quit")
	}
	if !app.ExitRequested() {
		t.Fatalf("exit must be recorded as requested")
	}
}

func TestCustomExitKey(t *testing.T) {
	board := newTestBoard(t)
	app := NewApp(board, nil, Options{ExitKey: "ctrl+x"})
	if _, cmd := press(t, app, runes(")")); cmd != nil {
		t.Fatalf("default exit key must be inert when overridden")
	}
	if _, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyCtrlX}); !isQuit(cmd) {
		t.Fatalf("configured exit key must quit")
	}
}

func TestInterruptIsSwallowed(t *testing.T) {
	for _, mode := range []Mode{ModeKiosk, ModeAdmin} {
		app, _ := newTestApp(t, newTestBoard(t), mode)
		app, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})
		if cmd != nil {
			t.Fatalf("%s: ctrl+c must not produce a command", mode)
		}
		if app.ExitRequested() {
			t.Fatalf("%s: ctrl+c must not request exit", mode)
		}
	}
}

func TestAdminApproveAndRejectPersist(t *testing.T) {
	board := newTestBoard(t,
		quote.New("Alice", "Hi"),
		quote.New("Bob", "Yo"),
	)
	app, _ := newTestApp(t, board, ModeAdmin)

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyPgUp})
	if !strings.Contains(app.notice, "Approved") {
		t.Fatalf("expected approval notice, got %q", app.notice)
	}
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyPgDown})
	if !strings.Contains(app.notice, "Removed") {
		t.Fatalf("expected removal notice, got %q", app.notice)
	}

	stores := board.Stores()
	approved, err := stores.Approved.Load()
	if err != nil {
		t.Fatalf("load approved: %v", err)
	}
	removed, err := stores.Removed.Load()
	if err != nil {
		t.Fatalf("load removed: %v", err)
	}
	pending, err := stores.Pending.Load()
	if err != nil {
		t.Fatalf("load pending: %v", err)
	}
	if len(approved) != 1 || approved[0].Name != "Alice" {
		t.Fatalf("unexpected approved: %+v", approved)
	}
	if len(removed) != 1 || removed[0].Name != "Bob" {
		t.Fatalf("unexpected removed: %+v", removed)
	}
	if len(pending) != 0 {
		t.Fatalf("pending must be empty, got %+v", pending)
	}

	// Nothing left: further decisions are ignored.
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyPgUp})
	if !strings.Contains(app.View(), "No pending quotes available") {
		t.Fatalf("empty admin panel must say so")
	}
}

func TestAdminNavigation(t *testing.T) {
	board := newTestBoard(t,
		quote.New("A", "one"),
		quote.New("B", "two"),
		quote.New("C", "three"),
	)
	app, _ := newTestApp(t, board, ModeAdmin)
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyUp})
	if got := board.Cursor(); got != 2 {
		t.Fatalf("up from first must wrap to last, got %d", got)
	}
	if !strings.Contains(app.View(), "Quote 3 of 3") {
		t.Fatalf("position indicator missing")
	}
	press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	if got := board.Cursor(); got != 0 {
		t.Fatalf("down from last must wrap to first, got %d", got)
	}
}

func TestEscapeDependsOnMode(t *testing.T) {
	app, _ := newTestApp(t, newTestBoard(t), ModeAdmin)
	if _, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyEsc}); !isQuit(cmd) {
		t.Fatalf("esc in admin mode must quit")
	}

	app, _ = newTestApp(t, newTestBoard(t), ModeKiosk)
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlP})
	if app.state != stateAdmin {
		t.Fatalf("ctrl+p must open the admin panel")
	}
	app, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil {
		t.Fatalf("esc in kiosk admin must not quit")
	}
	if app.state != stateDisplay {
		t.Fatalf("esc must return to the display, got state %d", app.state)
	}
}

func TestSubmitFlow(t *testing.T) {
	board := newTestBoard(t)
	app, _ := newTestApp(t, board, ModeKiosk)

	app, _ = press(t, app, runes("A"))
	if app.state != stateSubmit {
		t.Fatalf("A must open the submission form")
	}
	app = typeText(t, app, "Ada)")
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if app.form.step != stepText {
		t.Fatalf("enter must advance to the quote field")
	}
	app = typeText(t, app, "Hello there")
	app, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil && isQuit(cmd) {
		t.Fatalf("submitting must not quit")
	}
	if app.state != stateDisplay {
		t.Fatalf("submission must return to the display")
	}
	if !strings.Contains(app.notice, "awaiting review") {
		t.Fatalf("expected confirmation notice, got %q", app.notice)
	}

	pending, err := board.Stores().Pending.Load()
	if err != nil {
		t.Fatalf("load pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "Ada)" || pending[0].Text != "Hello there" {
		t.Fatalf("unexpected pending: %+v", pending)
	}
}

func TestSubmitCancelAndBlank(t *testing.T) {
	board := newTestBoard(t)
	app, _ := newTestApp(t, board, ModeKiosk)

	app, _ = press(t, app, runes("a"))
	app = typeText(t, app, "Ada")
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.state != stateDisplay {
		t.Fatalf("esc must cancel the form")
	}

	app, _ = press(t, app, runes("a"))
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if app.notice != "" {
		t.Fatalf("blank submission must not confirm, got %q", app.notice)
	}
	if pending := board.Pending(); len(pending) != 0 {
		t.Fatalf("nothing should be pending, got %+v", pending)
	}
}

func TestSubmitSaveFailureAsksToRetry(t *testing.T) {
	board := newTestBoard(t)
	app, _ := newTestApp(t, board, ModeKiosk)
	path := board.Stores().Pending.Path()
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove pending: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(path, "keep"), 0o755); err != nil {
		t.Fatalf("block pending: %v", err)
	}

	app, _ = press(t, app, runes("a"))
	app = typeText(t, app, "Ada")
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	app = typeText(t, app, "Hello")
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	if strings.Contains(app.notice, "awaiting review") {
		t.Fatalf("failed save must not thank the visitor, got %q", app.notice)
	}
	if !strings.Contains(app.notice, "try again") {
		t.Fatalf("expected retry notice, got %q", app.notice)
	}
	if pending := board.Pending(); len(pending) != 0 {
		t.Fatalf("unsaved quote must not linger in memory, got %+v", pending)
	}
}

func TestSubmitFieldRespectsLimit(t *testing.T) {
	board := newTestBoard(t)
	app := NewApp(board, nil, Options{Limits: quote.Limits{MaxName: 3, MaxText: 5}})
	app, _ = press(t, app, runes("a"))
	app = typeText(t, app, "Abcdef")
	if got := app.form.name.Value(); got != "Abc" {
		t.Fatalf("name field must stop at the limit, got %q", got)
	}
}

func TestReconcileSurfacesNewSubmissions(t *testing.T) {
	board := newTestBoard(t)
	app, _ := newTestApp(t, board, ModeAdmin)

	other := []quote.Quote{quote.New("Eve", "from the kiosk")}
	if err := board.Stores().Pending.Save(other); err != nil {
		t.Fatalf("external write: %v", err)
	}
	model, cmd := app.Update(reconcileMsg(time.Now()))
	app = model.(*App)
	if cmd == nil {
		t.Fatalf("reconcile must reschedule itself")
	}
	if !strings.Contains(app.notice, "1 new quote awaiting review") {
		t.Fatalf("expected new submission notice, got %q", app.notice)
	}
	if q, ok := board.Selected(); !ok || q.Name != "Eve" {
		t.Fatalf("external submission must be selectable, got %+v", q)
	}
}

func TestReconcileParseErrorStopsLoop(t *testing.T) {
	board := newTestBoard(t)
	app, _ := newTestApp(t, board, ModeKiosk)
	if err := os.WriteFile(board.Stores().Removed.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt removed store: %v", err)
	}
	model, cmd := app.Update(reconcileMsg(time.Now()))
	app = model.(*App)
	if !isQuit(cmd) {
		t.Fatalf("malformed store must end the loop")
	}
	var parseErr *store.ParseError
	if !errors.As(app.Err(), &parseErr) {
		t.Fatalf("expected parse error, got %v", app.Err())
	}
	if parseErr.Store != store.Removed {
		t.Fatalf("error must name the removed store, got %s", parseErr.Store)
	}
}

func TestTypewriterAndNoticeExpiry(t *testing.T) {
	app, clock := newTestApp(t, newTestBoard(t), ModeKiosk)
	if app.revealed != 0 {
		t.Fatalf("quote must start hidden, revealed %d", app.revealed)
	}
	if strings.Contains(app.View(), moderation.DefaultWelcome.Name) {
		t.Fatalf("attribution must wait for the quote to finish typing")
	}

	app.setNotice("hello")
	clock.now = clock.now.Add(time.Second)
	model, _ := app.Update(frameMsg(clock.now))
	app = model.(*App)
	if app.revealed != len([]rune(moderation.DefaultWelcome.Text)) {
		t.Fatalf("quote must be fully typed, revealed %d", app.revealed)
	}
	if !strings.Contains(app.View(), "- "+moderation.DefaultWelcome.Name+" -") {
		t.Fatalf("attribution missing once typed")
	}
	if app.notice != "hello" {
		t.Fatalf("notice expired early")
	}

	clock.now = clock.now.Add(2 * time.Second)
	model, _ = app.Update(frameMsg(clock.now))
	app = model.(*App)
	if app.notice != "" {
		t.Fatalf("notice must expire, got %q", app.notice)
	}
}

func TestRotationShowsEveryQuoteBeforeRepeating(t *testing.T) {
	r := newRotation(rand.New(rand.NewPCG(7, 7)))
	seen := map[int]bool{}
	for i := 0; i < 4; i++ {
		idx := r.next(4)
		if seen[idx] {
			t.Fatalf("index %d repeated before the cycle finished", idx)
		}
		seen[idx] = true
	}
	if idx := r.next(4); idx < 0 || idx > 3 {
		t.Fatalf("new cycle must pick a valid index, got %d", idx)
	}
	if idx := r.next(0); idx != -1 {
		t.Fatalf("empty list must yield -1, got %d", idx)
	}
}

func TestBanner(t *testing.T) {
	if got := banner("Retro wall"); got != "R E T R O   W A L L" {
		t.Fatalf("unexpected banner %q", got)
	}
}

func TestAdminSaveFailureKeepsQuotePending(t *testing.T) {
	board := newTestBoard(t, quote.New("Alice", "Hi"))
	app, _ := newTestApp(t, board, ModeAdmin)
	path := board.Stores().Approved.Path()
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove approved: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(path, "keep"), 0o755); err != nil {
		t.Fatalf("block approved: %v", err)
	}

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyPgUp})
	if !strings.Contains(app.notice, "still pending") {
		t.Fatalf("expected still-pending notice, got %q", app.notice)
	}
	if q, ok := board.Selected(); !ok || q.Name != "Alice" {
		t.Fatalf("quote must remain selectable, got %+v", q)
	}
}
