package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ssp-admin/internal/core/admin"
	"ssp-admin/internal/ssp"
)

const (
	fieldName = iota
	fieldSubject
	fieldDescription
	fieldBody
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Subject", "Description", "Body"}

// editorPane is the message template detail form. Display replaces whatever
// it was showing.
type editorPane struct {
	container string
	form      string
	active    bool
	saving    bool
	err       string

	original ssp.MessageTemplate
	inputs   [fieldBody]textinput.Model
	body     textarea.Model
	focus    int
}

func newEditorPane() *editorPane {
	e := &editorPane{}
	limits := [fieldBody]int{80, 250, 150}
	for i := range e.inputs {
		ti := textinput.New()
		ti.CharLimit = limits[i]
		ti.Width = 60
		ti.Placeholder = fieldLabels[i]
		e.inputs[i] = ti
	}
	ta := textarea.New()
	ta.Placeholder = "Body (HTML allowed)"
	ta.CharLimit = 0
	ta.SetWidth(72)
	ta.SetHeight(8)
	e.body = ta
	return e
}

func (e *editorPane) Display(container, form string, t ssp.MessageTemplate) {
	e.container, e.form = container, form
	e.original = t
	e.active = true
	e.saving = false
	e.err = ""
	e.inputs[fieldName].SetValue(t.Name)
	e.inputs[fieldSubject].SetValue(t.Subject)
	e.inputs[fieldDescription].SetValue(t.Description)
	e.body.SetValue(t.Body)
	e.setFocus(fieldName)
}

func (e *editorPane) close() {
	e.active = false
	e.saving = false
	e.err = ""
	for i := range e.inputs {
		e.inputs[i].Blur()
	}
	e.body.Blur()
}

func (e *editorPane) setFocus(f int) {
	e.focus = (f + fieldCount) % fieldCount
	for i := range e.inputs {
		if i == e.focus {
			e.inputs[i].Focus()
		} else {
			e.inputs[i].Blur()
		}
	}
	if e.focus == fieldBody {
		e.body.Focus()
	} else {
		e.body.Blur()
	}
}

// template returns the original record with the form values applied.
func (e *editorPane) template() ssp.MessageTemplate {
	t := e.original
	t.Name = strings.TrimSpace(e.inputs[fieldName].Value())
	t.Subject = strings.TrimSpace(e.inputs[fieldSubject].Value())
	t.Description = strings.TrimSpace(e.inputs[fieldDescription].Value())
	t.Body = e.body.Value()
	return t
}

// validate checks the form and moves focus to the first invalid field.
func (e *editorPane) validate() (ssp.MessageTemplate, bool) {
	t := e.template()
	err := admin.ValidateTemplate(t)
	if err == nil {
		e.err = ""
		return t, true
	}
	e.err = err.Error()
	var fe *admin.FieldError
	if errors.As(err, &fe) {
		switch fe.Field {
		case "name":
			e.setFocus(fieldName)
		case "subject":
			e.setFocus(fieldSubject)
		case "description":
			e.setFocus(fieldDescription)
		case "body":
			e.setFocus(fieldBody)
		}
	}
	return t, false
}

func (e *editorPane) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if e.focus == fieldBody {
		e.body, cmd = e.body.Update(msg)
		return cmd
	}
	e.inputs[e.focus], cmd = e.inputs[e.focus].Update(msg)
	return cmd
}

func (e *editorPane) view() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render(e.container+" / "+e.form) + "\n")
	b.WriteString(subtleStyle.Render("Message template #"+strconv.Itoa(e.original.ID)) + "\n\n")
	for i := range e.inputs {
		label := fieldLabels[i]
		if i == e.focus {
			label = focusStyle.Render("> " + label)
		} else {
			label = "  " + label
		}
		b.WriteString(label + "\n  " + e.inputs[i].View() + "\n\n")
	}
	label := "  " + fieldLabels[fieldBody]
	if e.focus == fieldBody {
		label = focusStyle.Render("> " + fieldLabels[fieldBody])
	}
	b.WriteString(label + "\n" + e.body.View() + "\n")
	if e.err != "" {
		b.WriteString("\n" + errorStyle.Render(e.err) + "\n")
	}
	return b.String()
}
