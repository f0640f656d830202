// Package admin holds the message template admin logic: the record store
// behind the grid and the controller that gates Edit and Preview on a
// single selected record.
package admin

import (
	"ssp-admin/internal/infra/logx"
	"ssp-admin/internal/ssp"
)

// ErrorTitle is the title of every alert raised by the controller.
const ErrorTitle = "SSP Error"

const (
	MsgSelectToEdit    = "Please select an item to edit."
	MsgSelectToPreview = "Please select an item to preview."
	MsgPreviewFailed   = "Could not create message template preview."
)

// Default editor target.
const (
	DefaultContainer = "adminforms"
	DefaultForm      = "messagetemplatedetails"
)

// RecordSource exposes the current selection.
type RecordSource interface {
	Selection() (ssp.MessageTemplate, bool)
}

// SelectionListener is told when an action consumed the selection.
type SelectionListener interface {
	SelectionConsumed()
}

// Editor loads a form into a container, replacing whatever it showed.
type Editor interface {
	Display(container, form string, t ssp.MessageTemplate)
}

// Popup is a preview overlay.
type Popup interface {
	Show()
	Destroy()
}

// PopupFactory builds a popup for a decoded preview.
type PopupFactory func(OptionalDetail) Popup

// Notifier shows a blocking alert.
type Notifier interface {
	Alert(title, message string)
}

// PopupState is the controller's popup lifecycle state.
type PopupState int

const (
	NoPopup PopupState = iota
	PopupShown
)

func (s PopupState) String() string {
	if s == PopupShown {
		return "popup-shown"
	}
	return "no-popup"
}

// Deps are the collaborators of a Controller. All are required.
type Deps struct {
	Source   RecordSource
	Listener SelectionListener
	Editor   Editor
	Popups   PopupFactory
	Notifier Notifier
	Fetcher  DetailFetcher
}

// Option customises a Controller.
type Option func(*Controller)

// WithEditorTarget overrides the container and form used by Edit.
func WithEditorTarget(container, form string) Option {
	return func(c *Controller) {
		c.container = container
		c.form = form
	}
}

// WithLegacyStaleResponses disables the generation check so that a late
// preview response replaces the popup even after a newer action started.
func WithLegacyStaleResponses() Option {
	return func(c *Controller) { c.acceptStale = true }
}

// Controller gates Edit and Preview on exactly one selected record and owns
// the single preview popup. It must only be used from one goroutine.
type Controller struct {
	deps        Deps
	container   string
	form        string
	acceptStale bool

	generation uint64
	popup      Popup
	editModel  *ssp.MessageTemplate
}

func NewController(deps Deps, opts ...Option) *Controller {
	c := &Controller{deps: deps, container: DefaultContainer, form: DefaultForm}
	for _, o := range opts {
		o(c)
	}
	return c
}

// HandleEdit binds the selected record into the edit model and displays the
// editor. Without a selection it raises an alert instead.
func (c *Controller) HandleEdit() {
	rec, ok := c.deps.Source.Selection()
	c.deps.Listener.SelectionConsumed()
	if !ok {
		c.deps.Notifier.Alert(ErrorTitle, MsgSelectToEdit)
		return
	}
	// a pending preview must not pop up over the editor
	c.generation++
	bound := rec
	c.editModel = &bound
	logx.Debugf("edit message template %d in %s/%s", rec.ID, c.container, c.form)
	c.deps.Editor.Display(c.container, c.form, bound)
}

// HandlePreview starts a preview of the selected record. The returned fetch
// must be run off the UI loop and its result passed to CompletePreview.
// ok is false when nothing is selected; an alert has then been raised.
func (c *Controller) HandlePreview() (fetch PendingFetch, ok bool) {
	rec, ok := c.deps.Source.Selection()
	c.deps.Listener.SelectionConsumed()
	if !ok {
		c.deps.Notifier.Alert(ErrorTitle, MsgSelectToPreview)
		return PendingFetch{}, false
	}
	c.generation++
	logx.Debugf("preview message template %d (generation %d)", rec.ID, c.generation)
	return PendingFetch{Generation: c.generation, ID: rec.ID, fetcher: c.deps.Fetcher}, true
}

// CompletePreview applies a fetch result. On success the current popup is
// destroyed before the new one is created and shown; on failure an alert is
// raised and the popup is left alone. It reports whether the result was
// applied; superseded results are dropped unless legacy mode is on.
func (c *Controller) CompletePreview(r FetchResult) bool {
	if !c.acceptStale && r.Generation != c.generation {
		logx.Debugf("dropping stale preview for %d (generation %d, current %d)", r.ID, r.Generation, c.generation)
		return false
	}
	if !r.OK() {
		logx.Warnf("preview of message template %d failed: %v", r.ID, r.Err)
		c.deps.Notifier.Alert(ErrorTitle, MsgPreviewFailed)
		return true
	}
	c.destroyPopup()
	p := c.deps.Popups(r.Detail)
	c.popup = p
	p.Show()
	return true
}

// Teardown destroys the preview popup if one is shown. Safe to call repeatedly.
func (c *Controller) Teardown() {
	if c.popup != nil {
		// a fetch still in flight must not reopen what was just closed
		c.generation++
	}
	c.destroyPopup()
}

func (c *Controller) destroyPopup() {
	if c.popup == nil {
		return
	}
	p := c.popup
	c.popup = nil
	p.Destroy()
}

// Popup returns the live popup, or nil.
func (c *Controller) Popup() Popup { return c.popup }

// State reports the popup lifecycle state.
func (c *Controller) State() PopupState {
	if c.popup != nil {
		return PopupShown
	}
	return NoPopup
}

// EditModel returns the record last bound by HandleEdit.
func (c *Controller) EditModel() (ssp.MessageTemplate, bool) {
	if c.editModel == nil {
		return ssp.MessageTemplate{}, false
	}
	return *c.editModel, true
}

// Generation is the ID of the newest preview request.
func (c *Controller) Generation() uint64 { return c.generation }
