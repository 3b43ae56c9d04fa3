package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// DefaultExitKey is Shift+0 on a US layout: awkward enough that a visitor
// leaning on the keyboard will not hit it.
const DefaultExitKey = ")"

type keyMap struct {
	Prev    key.Binding
	Next    key.Binding
	Approve key.Binding
	Reject  key.Binding
	Back    key.Binding
	Submit  key.Binding
	Admin   key.Binding
	Confirm key.Binding
	Exit    key.Binding
	// Interrupt is swallowed so ctrl+c cannot end the kiosk.
	Interrupt key.Binding
}

func newKeyMap(exitKey string) keyMap {
	exitKey = strings.TrimSpace(exitKey)
	if exitKey == "" {
		exitKey = DefaultExitKey
	}
	return keyMap{
		Prev: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next"),
		),
		Approve: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PAGE UP", "approve"),
		),
		Reject: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PAGE DOWN", "remove"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("ESC", "exit"),
		),
		Submit: key.NewBinding(
			key.WithKeys("a", "A"),
			key.WithHelp("A", "add a quote"),
		),
		Admin: key.NewBinding(
			key.WithKeys("ctrl+p"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("ENTER", "continue"),
		),
		Exit: key.NewBinding(
			key.WithKeys(exitKey),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
	}
}

// adminHelp lists the bindings shown at the foot of the admin panel.
type adminHelp struct{ keys keyMap }

func (h adminHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.keys.Approve, h.keys.Reject, h.keys.Prev, h.keys.Next, h.keys.Back}
}

func (h adminHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}

type submitHelp struct{ keys keyMap }

func (h submitHelp) ShortHelp() []key.Binding {
	back := h.keys.Back
	back.SetHelp("ESC", "cancel")
	return []key.Binding{h.keys.Confirm, back}
}

func (h submitHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}
