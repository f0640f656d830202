package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"ssp-admin/internal/core/admin"
	"ssp-admin/internal/ssp"
)

// ---------- Messages / Cmds ----------
type templatesMsg struct {
	templates []ssp.MessageTemplate
	err       error
}

type previewMsg struct {
	result admin.FetchResult
}

type savedMsg struct {
	id       int // template the save was attempted for
	template ssp.MessageTemplate
	err      error
}

func (m Model) loadTemplatesCmd() tea.Cmd {
	api, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ts, err := api.ListMessageTemplates(ctx)
		return templatesMsg{templates: ts, err: err}
	}
}

func (m Model) previewCmd(fetch admin.PendingFetch) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ctx = ssp.WithRequestID(ctx, "")
		return previewMsg{result: fetch.Run(ctx)}
	}
}

func (m Model) saveCmd(t ssp.MessageTemplate) tea.Cmd {
	api, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		saved, err := api.UpdateMessageTemplate(ctx, t)
		if err == nil && saved.ID == 0 {
			saved = t
		}
		return savedMsg{id: t.ID, template: saved, err: err}
	}
}
