package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD166")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FFD166")).
			Padding(0, 2)
	quoteBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#06D6A0")).
			Padding(1, 3)
	quoteTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	attributionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#06D6A0"))
	promptStyle = lipgloss.NewStyle().
			Reverse(true).
			Bold(true).
			Padding(0, 1)
	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD166")).
			Italic(true)
	adminHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FF6B6B"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	approvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#06D6A0"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	panelStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// View renders the current screen.
func (a *App) View() string {
	var body string
	switch a.state {
	case stateSubmit:
		body = a.renderSubmit()
	case stateAdmin:
		body = a.renderAdmin()
	default:
		body = a.renderDisplay()
	}
	width, height := a.size()
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

func (a *App) size() (int, int) {
	width, height := a.width, a.height
	if width <= 0 {
		width = fallbackWidth
	}
	if height <= 0 {
		height = fallbackHeight
	}
	return width, height
}

func (a *App) renderDisplay() string {
	runes := []rune(a.current.Text)
	typed := string(runes[:a.revealed])
	lines := []string{quoteTextStyle.Render(typed)}
	if a.revealed == len(runes) {
		lines = append(lines, "", attributionStyle.Render("- "+a.current.Name+" -"))
	}
	box := quoteBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))

	parts := []string{
		titleStyle.Render(banner(a.opts.Title)),
		"",
		box,
		"",
		promptStyle.Render("PRESS A TO ADD A QUOTE."),
	}
	if a.notice != "" {
		parts = append(parts, "", noticeStyle.Render(a.notice))
	}
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func (a *App) renderSubmit() string {
	hint := dimStyle.Render(fmt.Sprintf("up to %d characters", a.form.limit()))
	parts := []string{
		titleStyle.Render(banner(a.opts.Title)),
		"",
		lipgloss.NewStyle().Bold(true).Render(a.form.prompt()),
		a.form.input(),
		hint,
		"",
		a.help.View(submitHelp{keys: a.keys}),
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderAdmin() string {
	pending, approved, removed := a.board.Counts()
	counts := lipgloss.JoinHorizontal(lipgloss.Top,
		pendingStyle.Render(fmt.Sprintf("Pending: %d", pending)),
		"   ",
		approvedStyle.Render(fmt.Sprintf("Approved: %d", approved)),
		"   ",
		removedStyle.Render(fmt.Sprintf("Removed: %d", removed)),
	)

	parts := []string{
		adminHeaderStyle.Render("ADMIN PANEL - PENDING QUOTES"),
		"",
		counts,
		"",
	}

	if q, ok := a.board.Selected(); ok {
		box := quoteBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			quoteTextStyle.Render(q.Text),
			"",
			attributionStyle.Render("- "+q.Name+" -"),
		))
		parts = append(parts, box)
		if pending > 1 {
			parts = append(parts, dimStyle.Render(fmt.Sprintf("Quote %d of %d", a.board.Cursor()+1, pending)))
		}
	} else {
		parts = append(parts, dimStyle.Render("No pending quotes available"))
	}

	if recent := a.renderRecent(); recent != "" {
		parts = append(parts, "", recent)
	}
	if a.notice != "" {
		parts = append(parts, "", noticeStyle.Render(a.notice))
	}
	parts = append(parts, "", a.help.View(adminHelp{keys: a.keys}))
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func (a *App) renderRecent() string {
	lines, total := a.logbook.Tail(auditTailLines)
	if total == 0 {
		return ""
	}
	width, _ := a.size()
	header := dimStyle.Render(fmt.Sprintf("Recent activity (%d)", total))
	body := lipgloss.NewStyle().
		Width(min(max(width-10, 20), 72)).
		Render(strings.Join(lines, "\n"))
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, body))
}

// banner spaces out the title the way a marquee would: "RETRO WALL"
// becomes "R E T R O   W A L L".
func banner(title string) string {
	words := strings.Fields(strings.ToUpper(title))
	for i, w := range words {
		words[i] = strings.Join(strings.Split(w, ""), " ")
	}
	return strings.Join(words, "   ")
}
