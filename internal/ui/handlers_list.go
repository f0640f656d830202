package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"ssp-admin/internal/ssp"
)

// applyFilter recomputes the visible rows from the current query and keeps
// the cursor in range.
func (m *Model) applyFilter() {
	m.search.filteredIdx = filterTemplates(m.store.Records(), m.search.query, m.filterCfg)
	if m.cursor >= len(m.search.filteredIdx) {
		m.cursor = len(m.search.filteredIdx) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) cursorToStoreIndex(i int) {
	for pos, idx := range m.search.filteredIdx {
		if idx == i {
			m.cursor = pos
			return
		}
	}
}

// cursorStoreIndex maps the cursor to a store index, or -1 for an empty list.
func (m Model) cursorStoreIndex() int {
	if m.cursor < 0 || m.cursor >= len(m.search.filteredIdx) {
		return -1
	}
	return m.search.filteredIdx[m.cursor]
}

const (
	colID       = 6
	colName     = 32
	colModified = 16
)

func formatModified(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func listHeader(width int) string {
	subject := max(10, width-colID-colName-colModified-8)
	return "   " + runewidth.FillRight("ID", colID) + " " +
		runewidth.FillRight("Name", colName) + " " +
		runewidth.FillRight("Subject", subject) + " " + "Modified"
}

func listRow(t ssp.MessageTemplate, width int) string {
	subject := max(10, width-colID-colName-colModified-8)
	return runewidth.FillRight(fmt.Sprintf("%d", t.ID), colID) + " " +
		runewidth.FillRight(runewidth.Truncate(t.Name, colName, "…"), colName) + " " +
		runewidth.FillRight(runewidth.Truncate(t.Subject, subject, "…"), subject) + " " +
		formatModified(t.ModifiedDate)
}

// refreshList renders the visible rows into the viewport and scrolls the
// cursor into view.
func (m *Model) refreshList() {
	width := m.viewport.Width
	selected := m.store.SelectedIndex()
	lines := make([]string, 0, len(m.search.filteredIdx))
	for pos, idx := range m.search.filteredIdx {
		row := listRow(m.store.At(idx), width-3)
		bar := " "
		mark := "  "
		if idx == selected {
			bar = markBarStyle.Render(" ")
			mark = selectedStyle.Render("✓ ")
			row = selectedStyle.Render(row)
		}
		if pos == m.cursor {
			bar = cursorBarStyle.Render(" ")
			row = cursorLineStyle.Render(row)
		}
		lines = append(lines, bar+mark+row)
	}
	if len(lines) == 0 {
		msg := "No message templates."
		if m.search.query != "" {
			msg = "No templates match " + fmt.Sprintf("%q.", m.search.query)
		}
		lines = append(lines, inactiveStyle.Render("   "+msg))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.ensureCursorInViewport(m.cursor)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.search.searching {
		return m.handleSearchKey(msg)
	}
	switch msg.String() {
	case "q":
		return m.quit()
	case "j", "down":
		if m.cursor < len(m.search.filteredIdx)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(0, len(m.search.filteredIdx)-1)
	case " ", "enter":
		m.toggleSelection()
	case "/":
		m.search.searching = true
		m.search.searchInput.SetValue(m.search.query)
		m.search.searchInput.CursorEnd()
		return m, m.search.searchInput.Focus()
	case "e":
		m.ctrl.HandleEdit()
		if m.editor.active {
			m.state = stateEditor
			return m, textinput.Blink
		}
	case "p":
		fetch, ok := m.ctrl.HandlePreview()
		if !ok {
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Loading preview of template %d…", fetch.ID)
		return m, m.previewCmd(fetch)
	case "r":
		m.state = stateLoading
		m.statusMsg = "Reloading message templates…"
		return m, tea.Batch(m.spinner.Tick, m.loadTemplatesCmd())
	}
	m.refreshList()
	return m, nil
}

// toggleSelection selects the row under the cursor, or clears it when it is
// already the selected one.
func (m *Model) toggleSelection() {
	idx := m.cursorStoreIndex()
	if idx < 0 {
		return
	}
	if m.store.SelectedIndex() == idx {
		m.store.ClearSelection()
		return
	}
	m.store.Select(idx)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.search.searching = false
		m.search.searchInput.Blur()
		m.refreshList()
		return m, nil
	case "esc":
		m.search.searching = false
		m.search.searchInput.Blur()
		m.search.searchInput.SetValue("")
		m.search.query = ""
		m.applyFilter()
		m.refreshList()
		return m, nil
	}
	var cmd tea.Cmd
	m.search.searchInput, cmd = m.search.searchInput.Update(msg)
	if q := m.search.searchInput.Value(); q != m.search.query {
		m.search.query = q
		m.cursor = 0
		m.applyFilter()
	}
	m.refreshList()
	return m, cmd
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editor.saving {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.editor.close()
		m.state = stateList
		m.statusMsg = "Edit cancelled."
		m.refreshList()
		return m, nil
	case "tab":
		m.editor.setFocus(m.editor.focus + 1)
		return m, nil
	case "shift+tab":
		m.editor.setFocus(m.editor.focus - 1)
		return m, nil
	case "ctrl+s":
		t, ok := m.editor.validate()
		if !ok {
			return m, nil
		}
		m.editor.saving = true
		m.statusMsg = fmt.Sprintf("Saving template %d…", t.ID)
		return m, m.saveCmd(t)
	}
	return m, m.editor.update(msg)
}
