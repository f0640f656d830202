package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ssp-admin/internal/core/admin"
)

const noPreviewNotice = "No preview data returned for this template."

// previewPopup is the overlay showing one template preview.
type previewPopup struct {
	detail    admin.OptionalDetail
	vp        viewport.Model
	shown     bool
	destroyed bool
}

func newPreviewPopup(d admin.OptionalDetail, screen *screenSize) *previewPopup {
	p := &previewPopup{detail: d, vp: viewport.New(60, 12)}
	p.resize(screen.width, screen.height)
	return p
}

func (p *previewPopup) Show()    { p.shown = true }
func (p *previewPopup) Destroy() { p.destroyed = true; p.shown = false }

func (p *previewPopup) visible() bool { return p.shown && !p.destroyed }

func (p *previewPopup) resize(width, height int) {
	if width <= 0 || height <= 0 {
		width, height = 80, 24
	}
	p.vp.Width = max(20, width*3/4)
	p.vp.Height = max(3, height*2/3-6)
	p.vp.SetContent(p.content())
}

func (p *previewPopup) content() string {
	if !p.detail.Present {
		return warnStyle.Render(noPreviewNotice)
	}
	t := p.detail.Template
	wrap := lipgloss.NewStyle().Width(p.vp.Width)
	var b strings.Builder
	b.WriteString(labelStyle.Render("Name: ") + t.Name + "\n")
	b.WriteString(labelStyle.Render("Subject: ") + t.Subject + "\n")
	if t.Description != "" {
		b.WriteString(subtleStyle.Render(t.Description) + "\n")
	}
	b.WriteString("\n" + wrap.Render(admin.BodyText(t.Body)))
	return b.String()
}

func (p *previewPopup) update(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return cmd
}

func (p *previewPopup) view() string {
	title := "Preview"
	if p.detail.Present {
		title = fmt.Sprintf("Preview · #%d", p.detail.Template.ID)
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(title) + "\n\n")
	b.WriteString(p.vp.View() + "\n\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("j/k scroll  |  PgUp/PgDn page  |  Esc/q close  ·  %3.f%%", p.vp.ScrollPercent()*100)))
	return popupStyle.Render(b.String())
}
