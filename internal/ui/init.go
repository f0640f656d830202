package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"ssp-admin/internal/config"
	"ssp-admin/internal/core/admin"
)

// NewModel builds the TUI around api. Extra controller options are passed
// through, e.g. admin.WithLegacyStaleResponses.
func NewModel(cfg config.Config, api API, opts ...admin.Option) Model {
	m := Model{
		state:   stateLoading,
		cfg:     cfg,
		api:     api,
		timeout: cfg.Timeout,
		store:   admin.NewStore(),
		editor:  newEditorPane(),
		alerts:  &alertBox{},
		screen:  &screenSize{width: 80, height: 24},
	}
	if m.timeout <= 0 {
		m.timeout = 15 * time.Second
	}

	screen := m.screen
	m.ctrl = admin.NewController(admin.Deps{
		Source:   m.store,
		Listener: m.store,
		Editor:   m.editor,
		Popups:   func(d admin.OptionalDetail) admin.Popup { return newPreviewPopup(d, screen) },
		Notifier: m.alerts,
		Fetcher:  api,
	}, opts...)

	// search
	si := textinput.New()
	si.Placeholder = "Search templates…"
	si.CharLimit = 200
	si.Width = 40
	m.search.searchInput = si
	m.filterCfg = FilterConfig{
		MinCoverage: 0.6,
		MaxSpread:   40,
		MaxResults:  500,
	}

	// spinner
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = subtleStyle
	m.spinner = sp

	// viewport, resized on the first WindowSizeMsg
	m.viewport = viewport.New(80, 16)

	m.statusMsg = "Loading message templates…"
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadTemplatesCmd())
}
