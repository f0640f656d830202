package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ssp-admin/internal/core/admin"
	"ssp-admin/internal/ssp"
)

func TestPreviewPopupLifecycle(t *testing.T) {
	p := newPreviewPopup(admin.OptionalDetail{}, &screenSize{})
	assert.False(t, p.visible())
	p.Show()
	assert.True(t, p.visible())
	p.Destroy()
	assert.False(t, p.visible())
	assert.True(t, p.destroyed)
}

func TestPreviewPopupContent(t *testing.T) {
	d := admin.OptionalDetail{Present: true, Template: ssp.MessageTemplate{
		ID: 42, Name: "Welcome Email", Subject: "Hi", Body: "<p>Hello</p>",
	}}
	p := newPreviewPopup(d, &screenSize{width: 100, height: 40})
	p.Show()
	out := p.view()
	assert.Contains(t, out, "#42")
	assert.Contains(t, out, "Welcome Email")
	assert.Contains(t, out, "Hello")
	assert.NotContains(t, out, "<p>")
	assert.Equal(t, 75, p.vp.Width)
}

func TestPreviewPopupScrolls(t *testing.T) {
	d := admin.OptionalDetail{Present: true, Template: ssp.MessageTemplate{
		ID: 1, Name: "Long", Body: strings.Repeat("line<br>", 100),
	}}
	p := newPreviewPopup(d, &screenSize{width: 80, height: 24})
	p.update(keyMsg("j"))
	assert.Equal(t, 1, p.vp.YOffset)
}
