package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"ssp-admin/internal/config"
	"ssp-admin/internal/core/admin"
	"ssp-admin/internal/ssp"
)

// --- Model / State ---
type state int

const (
	stateLoading state = iota
	stateList
	stateEditor
	stateQuit
)

// API is the part of the SSP client the TUI talks to.
type API interface {
	ListMessageTemplates(ctx context.Context) ([]ssp.MessageTemplate, error)
	UpdateMessageTemplate(ctx context.Context, t ssp.MessageTemplate) (ssp.MessageTemplate, error)
	PreviewMessageTemplate(ctx context.Context, id int) ([]byte, error)
}

type SearchState struct {
	searching   bool
	searchInput textinput.Model
	query       string
	filteredIdx []int // visible position -> store index
}

// screenSize is shared with the popup factory so new popups fit the terminal.
type screenSize struct {
	width, height int
}

type Model struct {
	state     state
	cfg       config.Config
	api       API
	timeout   time.Duration
	statusMsg string
	loadErr   error

	// collaborators are pointers so they survive model copies in Update
	store  *admin.Store
	ctrl   *admin.Controller
	editor *editorPane
	alerts *alertBox
	screen *screenSize

	spinner  spinner.Model
	viewport viewport.Model

	search    SearchState
	filterCfg FilterConfig
	cursor    int // position within search.filteredIdx

	// reselectID is the template to select after the next reload
	reselectID int
}
