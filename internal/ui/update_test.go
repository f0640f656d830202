package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssp-admin/internal/config"
	"ssp-admin/internal/core/admin"
	"ssp-admin/internal/ssp"
)

type fakeAPI struct {
	templates  []ssp.MessageTemplate
	listErr    error
	previews   map[int]string
	previewErr error
	saveErr    error
	saved      []ssp.MessageTemplate
	lists      int
}

func (f *fakeAPI) ListMessageTemplates(context.Context) ([]ssp.MessageTemplate, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]ssp.MessageTemplate(nil), f.templates...), nil
}

func (f *fakeAPI) UpdateMessageTemplate(_ context.Context, t ssp.MessageTemplate) (ssp.MessageTemplate, error) {
	if f.saveErr != nil {
		return ssp.MessageTemplate{}, f.saveErr
	}
	f.saved = append(f.saved, t)
	for i := range f.templates {
		if f.templates[i].ID == t.ID {
			f.templates[i] = t
		}
	}
	return t, nil
}

func (f *fakeAPI) PreviewMessageTemplate(_ context.Context, id int) ([]byte, error) {
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	return []byte(f.previews[id]), nil
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		templates: []ssp.MessageTemplate{
			{ID: 42, Name: "Welcome Email", Subject: "Welcome", Body: "Hello"},
			{ID: 7, Name: "Early Alert", Subject: "Concern raised", Body: "<p>Hi</p>"},
		},
		previews: map[int]string{
			42: `{"id":42,"name":"Welcome Email","body":"Hello"}`,
			7:  `{"id":7,"name":"Early Alert","body":"<p>Hi</p>"}`,
		},
	}
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var tm tea.Model
		tm, cmd = m.Update(keyMsg(k))
		m = tm.(Model)
	}
	return m, cmd
}

// feed runs cmd and applies every message it produces except spinner ticks.
func feed(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case templatesMsg, previewMsg, savedMsg:
			tm, _ := m.Update(msg)
			m = tm.(Model)
		}
	}
	return m
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func loadedModel(t *testing.T, api *fakeAPI, opts ...admin.Option) Model {
	t.Helper()
	m := NewModel(config.Default(), api, opts...)
	m = feed(t, m, m.Init())
	require.Equal(t, stateList, m.state)
	return m
}

func alertText(m Model) string {
	a, _ := m.alerts.current()
	return a.message
}

func TestInitLoadsTemplates(t *testing.T) {
	api := newFakeAPI()
	m := loadedModel(t, api)
	assert.Equal(t, 2, m.store.Len())
	assert.Equal(t, []int{0, 1}, m.search.filteredIdx)
	assert.Contains(t, m.statusMsg, "2 message templates")
	assert.Contains(t, m.View(), "Welcome Email")
}

func TestLoadFailureAlerts(t *testing.T) {
	api := newFakeAPI()
	api.listErr = errors.New("boom")
	m := NewModel(config.Default(), api)
	m = feed(t, m, m.Init())

	require.True(t, m.alerts.active())
	assert.Equal(t, MsgLoadFailed, alertText(m))
	assert.Contains(t, m.View(), admin.ErrorTitle)

	m, _ = press(t, m, "esc")
	assert.False(t, m.alerts.active())
	assert.Equal(t, stateList, m.state)
}

func TestReloadFailureClearsList(t *testing.T) {
	api := newFakeAPI()
	m := loadedModel(t, api)
	m, _ = press(t, m, " ")
	require.NotEqual(t, admin.NoIndex, m.store.SelectedIndex())

	api.listErr = errors.New("boom")
	m, cmd := press(t, m, "r")
	m = feed(t, m, cmd)

	assert.Equal(t, MsgLoadFailed, alertText(m))
	assert.Equal(t, 0, m.store.Len())
	assert.Empty(t, m.search.filteredIdx)
	assert.Equal(t, admin.NoIndex, m.store.SelectedIndex())
	assert.Contains(t, m.statusMsg, "boom")

	// with nothing loaded, actions are gated again
	m, _ = press(t, m, "esc", "e")
	assert.Equal(t, admin.MsgSelectToEdit, alertText(m))
}

func TestPreviewWithoutSelectionAlerts(t *testing.T) {
	m := loadedModel(t, newFakeAPI())
	m, cmd := press(t, m, "p")
	assert.Nil(t, cmd)
	require.True(t, m.alerts.active())
	assert.Equal(t, admin.MsgSelectToPreview, alertText(m))

	// only enter/esc dismiss
	m, _ = press(t, m, "j")
	assert.True(t, m.alerts.active())
	m, _ = press(t, m, "enter")
	assert.False(t, m.alerts.active())
}

func TestEditWithoutSelectionAlerts(t *testing.T) {
	m := loadedModel(t, newFakeAPI())
	m, _ = press(t, m, "e")
	assert.Equal(t, stateList, m.state)
	assert.Equal(t, admin.MsgSelectToEdit, alertText(m))
}

func TestSpaceTogglesSingleSelection(t *testing.T) {
	m := loadedModel(t, newFakeAPI())
	m, _ = press(t, m, " ")
	assert.Equal(t, 0, m.store.SelectedIndex())
	m, _ = press(t, m, "j", " ")
	assert.Equal(t, 1, m.store.SelectedIndex())
	m, _ = press(t, m, " ")
	assert.Equal(t, admin.NoIndex, m.store.SelectedIndex())
}

func TestPreviewOpensPopupAndEscCloses(t *testing.T) {
	m := loadedModel(t, newFakeAPI())
	m, cmd := press(t, m, " ", "p")
	require.NotNil(t, cmd)
	m = feed(t, m, cmd)

	p := m.popup()
	require.NotNil(t, p)
	assert.Equal(t, 42, p.detail.Template.ID)
	assert.Contains(t, m.View(), "Welcome Email")
	assert.Equal(t, admin.NoIndex, m.store.RestoreIndex())

	// q closes the popup instead of quitting
	m, cmd = press(t, m, "q")
	assert.Nil(t, cmd)
	assert.Nil(t, m.popup())
	assert.True(t, p.destroyed)
	assert.Equal(t, admin.NoPopup, m.ctrl.State())
}

func TestPreviewFailureKeepsPopup(t *testing.T) {
	api := newFakeAPI()
	m := loadedModel(t, api)
	m, cmd := press(t, m, " ", "p")
	m = feed(t, m, cmd)
	first := m.popup()
	require.NotNil(t, first)

	api.previewErr = errors.New("unreachable")
	res := admin.FetchResult{Generation: m.ctrl.Generation(), ID: 42, Err: api.previewErr}
	tm, _ := m.Update(previewMsg{result: res})
	m = tm.(Model)

	assert.Equal(t, admin.MsgPreviewFailed, alertText(m))
	assert.Same(t, first, m.ctrl.Popup())
	assert.False(t, first.destroyed)
}

func TestEmptyPreviewShowsNotice(t *testing.T) {
	api := newFakeAPI()
	api.previews[42] = ""
	m := loadedModel(t, api)
	m, cmd := press(t, m, " ", "p")
	m = feed(t, m, cmd)

	p := m.popup()
	require.NotNil(t, p)
	assert.False(t, p.detail.Present)
	assert.Contains(t, m.View(), noPreviewNotice)
}

func TestStalePreviewIsDropped(t *testing.T) {
	m := loadedModel(t, newFakeAPI())
	m, first := press(t, m, " ", "p")
	m, second := press(t, m, "j", " ", "p")

	m = feed(t, m, second)
	m = feed(t, m, first)

	p := m.popup()
	require.NotNil(t, p)
	assert.Equal(t, 7, p.detail.Template.ID)
}

func TestLegacyStalePreviewWins(t *testing.T) {
	m := loadedModel(t, newFakeAPI(), admin.WithLegacyStaleResponses())
	m, first := press(t, m, " ", "p")
	m, second := press(t, m, "j", " ", "p")

	m = feed(t, m, second)
	m = feed(t, m, first)

	// the superseded response overwrites the newer popup
	p := m.popup()
	require.NotNil(t, p)
	assert.Equal(t, 42, p.detail.Template.ID)
}

func TestEditSaveReloadsAndReselects(t *testing.T) {
	api := newFakeAPI()
	m := loadedModel(t, api)
	m, _ = press(t, m, "j", " ", "e")
	require.Equal(t, stateEditor, m.state)
	assert.Equal(t, "Early Alert", m.editor.inputs[fieldName].Value())
	assert.Equal(t, admin.DefaultContainer, m.editor.container)

	m.editor.inputs[fieldName].SetValue("Renamed")
	m, cmd := press(t, m, "ctrl+s")
	require.NotNil(t, cmd)
	assert.True(t, m.editor.saving)

	// the save result triggers a reload
	msgs := collect(cmd)
	require.Len(t, msgs, 1)
	tm, reload := m.Update(msgs[0])
	m = tm.(Model)
	assert.Equal(t, stateLoading, m.state)
	m = feed(t, m, reload)

	require.Len(t, api.saved, 1)
	assert.Equal(t, "Renamed", api.saved[0].Name)
	assert.Equal(t, stateList, m.state)
	rec, ok := m.store.Selection()
	require.True(t, ok)
	assert.Equal(t, 7, rec.ID)
	assert.Equal(t, "Renamed", rec.Name)
	assert.Equal(t, 2, api.lists)
}

func TestEditValidationBlocksSave(t *testing.T) {
	api := newFakeAPI()
	m := loadedModel(t, api)
	m, _ = press(t, m, " ", "e", "tab")
	m.editor.inputs[fieldSubject].SetValue("")

	m, cmd := press(t, m, "ctrl+s")
	assert.Nil(t, cmd)
	assert.Equal(t, "subject: is required", m.editor.err)
	assert.Equal(t, fieldSubject, m.editor.focus)
	assert.Empty(t, api.saved)
}

func TestSaveFailureAlertsAndStaysInEditor(t *testing.T) {
	api := newFakeAPI()
	api.saveErr = errors.New("500")
	m := loadedModel(t, api)
	m, _ = press(t, m, " ", "e")
	want := m.store.At(m.store.SelectedIndex()).ID
	m, cmd := press(t, m, "ctrl+s")
	var failed savedMsg
	for _, msg := range collect(cmd) {
		if sm, ok := msg.(savedMsg); ok {
			failed = sm
		}
	}
	require.Error(t, failed.err)
	assert.Equal(t, want, failed.id)
	tm, _ := m.Update(failed)
	m = tm.(Model)

	assert.Equal(t, admin.MsgSaveFailed, alertText(m))
	assert.Equal(t, stateEditor, m.state)
	assert.False(t, m.editor.saving)
}

func TestEditCancel(t *testing.T) {
	m := loadedModel(t, newFakeAPI())
	m, _ = press(t, m, " ", "e", "esc")
	assert.Equal(t, stateList, m.state)
	assert.False(t, m.editor.active)
}

func TestSearchFiltersList(t *testing.T) {
	m := loadedModel(t, newFakeAPI())
	m, _ = press(t, m, "/", "a", "l", "e", "r", "t")
	assert.True(t, m.search.searching)
	assert.Equal(t, []int{1}, m.search.filteredIdx)

	// selecting acts on the filtered row
	m, _ = press(t, m, "enter", " ")
	assert.False(t, m.search.searching)
	assert.Equal(t, 1, m.store.SelectedIndex())

	m, _ = press(t, m, "/", "esc")
	assert.Equal(t, []int{0, 1}, m.search.filteredIdx)
}

func TestQuitTearsDownPopup(t *testing.T) {
	m := loadedModel(t, newFakeAPI())
	m, cmd := press(t, m, " ", "p")
	m = feed(t, m, cmd)
	p := m.popup()
	require.NotNil(t, p)

	m, cmd = press(t, m, "ctrl+c")
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.True(t, p.destroyed)
	assert.Equal(t, stateQuit, m.state)
	assert.Empty(t, m.View())
}

func TestWindowResize(t *testing.T) {
	m := loadedModel(t, newFakeAPI())
	tm, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = tm.(Model)
	assert.Equal(t, 118, m.viewport.Width)
	assert.Equal(t, 32, m.viewport.Height)
	assert.True(t, strings.Contains(m.View(), strings.Repeat("─", 118)))
}
