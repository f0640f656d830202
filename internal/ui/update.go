package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ssp-admin/internal/core/admin"
	"ssp-admin/internal/infra/logx"
)

// MsgLoadFailed is the alert text when the template list cannot be loaded.
const MsgLoadFailed = "Could not load message templates."

// ---------- Update ----------
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		// modal layers first: alert, then popup
		if m.alerts.active() {
			return m.handleAlertKey(msg.String())
		}
		if p := m.popup(); p != nil {
			return m.handlePopupKey(p, msg)
		}
		switch m.state {
		case stateLoading:
			if msg.String() == "q" {
				return m.quit()
			}
		case stateList:
			return m.handleListKey(msg)
		case stateEditor:
			return m.handleEditorKey(msg)
		}

	case tea.WindowSizeMsg:
		m.screen.width, m.screen.height = msg.Width, msg.Height
		// header, divider, column header and footer
		const chrome = 8
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-chrome)
		if p := m.popup(); p != nil {
			p.resize(msg.Width, msg.Height)
		}
		m.refreshList()

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case templatesMsg:
		return m.handleTemplates(msg)

	case previewMsg:
		if m.ctrl.CompletePreview(msg.result) && msg.result.OK() {
			m.statusMsg = fmt.Sprintf("Preview of template %d.", msg.result.ID)
		}
		return m, nil

	case savedMsg:
		return m.handleSaved(msg)
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.ctrl.Teardown()
	m.state = stateQuit
	return m, tea.Quit
}

// popup returns the visible preview overlay, if any.
func (m Model) popup() *previewPopup {
	p, ok := m.ctrl.Popup().(*previewPopup)
	if !ok || p == nil || !p.visible() {
		return nil
	}
	return p
}

func (m Model) handleAlertKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "enter", "esc":
		m.alerts.dismiss()
	}
	return m, nil
}

func (m Model) handlePopupKey(p *previewPopup, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.ctrl.Teardown()
		m.statusMsg = "Preview closed."
		return m, nil
	}
	return m, p.update(msg)
}

func (m Model) handleTemplates(msg templatesMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		logx.Errorf("load message templates: %v", msg.err)
		m.loadErr = msg.err
		m.alerts.Alert(admin.ErrorTitle, MsgLoadFailed)
		m.statusMsg = "Loading failed: " + msg.err.Error()
		m.state = stateList
		// stale rows must not stay editable
		m.store.Load(nil)
		m.reselectID = 0
		m.applyFilter()
		m.refreshList()
		return m, nil
	}
	m.loadErr = nil
	m.store.Load(msg.templates)
	if m.reselectID != 0 {
		if i := m.store.IndexOf(m.reselectID); i != admin.NoIndex {
			m.store.Select(i)
		}
		m.reselectID = 0
	}
	m.state = stateList
	m.statusMsg = fmt.Sprintf("%d message templates loaded.", m.store.Len())
	m.applyFilter()
	if sel := m.store.SelectedIndex(); sel != admin.NoIndex {
		m.cursorToStoreIndex(sel)
	}
	m.refreshList()
	return m, nil
}

func (m Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	m.editor.saving = false
	if msg.err != nil {
		logx.Errorf("save message template %d: %v", msg.id, msg.err)
		m.alerts.Alert(admin.ErrorTitle, admin.MsgSaveFailed)
		return m, nil
	}
	m.editor.close()
	// reselect the saved record once the reload lands
	m.store.SetRestoreIndex(m.store.IndexOf(msg.template.ID))
	m.reselectID = msg.template.ID
	m.statusMsg = fmt.Sprintf("Saved template %d. Reloading…", msg.template.ID)
	m.state = stateLoading
	return m, tea.Batch(m.spinner.Tick, m.loadTemplatesCmd())
}
