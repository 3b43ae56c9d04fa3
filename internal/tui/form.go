package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/retro-wall/internal/quote"
)

type formStep int

const (
	stepName formStep = iota
	stepText
)

// submitForm collects the attributed name first, then the quote itself.
type submitForm struct {
	step formStep
	name textinput.Model
	text textinput.Model
}

func newSubmitForm(limits quote.Limits, width int) submitForm {
	name := textinput.New()
	name.Prompt = "> "
	name.Placeholder = "who said it?"
	name.CharLimit = limits.MaxName

	text := textinput.New()
	text.Prompt = "> "
	text.Placeholder = "what did they say?"
	text.CharLimit = limits.MaxText

	f := submitForm{step: stepName, name: name, text: text}
	f.setWidth(width)
	return f
}

func (f *submitForm) setWidth(width int) {
	w := max(width-8, 20)
	f.name.Width = min(w, max(f.name.CharLimit, 20))
	f.text.Width = min(w, max(f.text.CharLimit, 20))
}

func (f *submitForm) start() tea.Cmd {
	f.step = stepName
	f.text.Blur()
	return f.name.Focus()
}

func (f *submitForm) advance() tea.Cmd {
	f.name.Blur()
	f.step = stepText
	return f.text.Focus()
}

func (f *submitForm) blur() {
	f.name.Blur()
	f.text.Blur()
}

func (f *submitForm) values() (string, string) {
	return f.name.Value(), f.text.Value()
}

func (f *submitForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.step == stepName {
		f.name, cmd = f.name.Update(msg)
	} else {
		f.text, cmd = f.text.Update(msg)
	}
	return cmd
}

func (f *submitForm) prompt() string {
	if f.step == stepName {
		return "Enter the name of the person:"
	}
	return "Type the quote:"
}

func (f *submitForm) input() string {
	if f.step == stepName {
		return f.name.View()
	}
	return f.text.View()
}

func (f *submitForm) limit() int {
	if f.step == stepName {
		return f.name.CharLimit
	}
	return f.text.CharLimit
}
