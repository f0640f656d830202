package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.state == stateQuit {
		return ""
	}
	// overlays replace the screen while they are up
	if m.alerts.active() {
		return m.overlay(m.alerts.view(m.screen.width))
	}
	if p := m.popup(); p != nil {
		return m.overlay(p.view())
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("SSP Admin · Message Templates"))
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", max(10, m.screen.width-2))))
	b.WriteString("\n")

	switch m.state {
	case stateLoading:
		b.WriteString("\n" + m.spinner.View() + " " + m.statusMsg + "\n\n")
		b.WriteString(renderFooter("", "q quit"))

	case stateList:
		b.WriteString(m.viewList())

	case stateEditor:
		b.WriteString("\n" + m.editor.view() + "\n")
		status := m.statusMsg
		if m.editor.saving {
			status = "Saving…"
		}
		b.WriteString(renderFooter(status, "Tab/Shift+Tab field  |  Ctrl+S save  |  Esc cancel"))
	}
	return b.String()
}

func (m Model) viewList() string {
	var b strings.Builder
	b.WriteString(listHeaderStyle.Render(listHeader(m.viewport.Width-3)) + "\n")
	b.WriteString(m.viewport.View() + "\n")

	if m.search.searching {
		b.WriteString(m.search.searchInput.View() + "\n")
	} else if m.search.query != "" {
		b.WriteString(subtleStyle.Render(fmt.Sprintf("Filter: %q (%d/%d)", m.search.query, len(m.search.filteredIdx), m.store.Len())) + "\n")
	}

	status := m.statusMsg
	if rec, ok := m.store.Selection(); ok {
		status += "  " + okStyle.Render(fmt.Sprintf("selected: #%d %s", rec.ID, rec.Name))
	}
	if m.loadErr != nil {
		status = warnStyle.Render("! ") + status
	}
	b.WriteString(renderFooter(status,
		"j/k move  |  Space select  |  / search  |  e edit  |  p preview  |  r reload  |  q quit"))
	return b.String()
}

func (m Model) overlay(box string) string {
	return lipgloss.Place(m.screen.width, m.screen.height, lipgloss.Center, lipgloss.Center, box)
}
