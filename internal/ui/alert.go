package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ssp-admin/internal/infra/logx"
)

type alert struct {
	title, message string
}

// alertBox is the modal error channel. Alerts queue up and are dismissed one
// at a time.
type alertBox struct {
	queue []alert
}

func (a *alertBox) Alert(title, message string) {
	logx.Infof("alert %q: %s", title, message)
	a.queue = append(a.queue, alert{title: title, message: message})
}

func (a *alertBox) active() bool { return len(a.queue) > 0 }

func (a *alertBox) current() (alert, bool) {
	if len(a.queue) == 0 {
		return alert{}, false
	}
	return a.queue[0], true
}

func (a *alertBox) dismiss() {
	if len(a.queue) > 0 {
		a.queue = a.queue[1:]
	}
}

func (a *alertBox) view(width int) string {
	cur, ok := a.current()
	if !ok {
		return ""
	}
	w := min(60, max(20, width-10))
	var b strings.Builder
	b.WriteString(errorStyle.Render(cur.title) + "\n\n")
	b.WriteString(lipgloss.NewStyle().Width(w).Render(cur.message) + "\n\n")
	b.WriteString(helpStyle.Render("Enter/Esc OK"))
	return alertStyle.Render(b.String())
}
