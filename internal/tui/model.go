package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/ledgerflow/internal/bulk"
	"github.com/Veraticus/ledgerflow/internal/codec"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/edit"
	"github.com/Veraticus/ledgerflow/internal/engine"
	"github.com/Veraticus/ledgerflow/internal/filter"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/tui/themes"
)

// ErrMalformedAssignment is returned for bulk set-field input without "=".
var ErrMalformedAssignment = errors.New("expected field=value")

// Model holds the TUI state. While busy, a command owns the engine and the
// view renders from the snapshot taken by refresh.
type Model struct {
	ctx       context.Context
	theme     themes.Theme
	engine    *engine.Engine
	notices   *Notices
	progress  *bulkProgress
	catalog   *filter.Catalog
	selected  map[string]bool
	currency  codec.Currency
	session   edit.Session
	view      filter.View
	summary   engine.Summary
	selection engine.SelectionSummary
	overlay   Overlay
	config    Config
	keymap    KeyMap
	help      help.Model
	spinner   spinner.Model
	input     textinput.Model
	search    string
	status    string
	busyLabel string
	rows      []model.Transaction
	filters   []filter.ActiveFilter
	cursor    int
	offset    int
	column    int
	width     int
	height    int
	statusErr bool
	editing   bool
	busy      bool
	ready     bool
	quitting  bool
}

// newModel creates a model that starts by loading eng.
func newModel(ctx context.Context, eng *engine.Engine, cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	in := textinput.New()
	in.Prompt = "› "
	in.CharLimit = 200

	notices := cfg.Notices
	if notices == nil {
		notices = NewNotices()
	}

	h := help.New()
	h.Width = cfg.Width

	return Model{
		ctx:       ctx,
		theme:     cfg.Theme,
		engine:    eng,
		notices:   notices,
		progress:  &bulkProgress{},
		catalog:   eng.Catalog(),
		selected:  make(map[string]bool),
		currency:  eng.Fields().Currency(),
		config:    cfg,
		keymap:    DefaultKeyMap(),
		help:      h,
		spinner:   sp,
		input:     in,
		width:     cfg.Width,
		height:    cfg.Height,
		busy:      true,
		busyLabel: "Loading",
	}
}

// Init starts the initial load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scrollToCursor()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		m.busy = false
		m.ready = true
		m.refresh()
		m.report("reload", msg.err, nil)
		if msg.err == nil {
			m.setInfo(fmt.Sprintf("Loaded %d records", m.summary.Total))
		}
		return m, nil

	case opDoneMsg:
		m.busy = false
		m.refresh()
		m.syncEdit()
		m.report(msg.op, msg.err, msg.result)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}
	if m.overlay.Active() != "" {
		return m.handleOverlayKey(msg)
	}
	if m.editing {
		return m.handleEditKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = true
		m.overlay.Toggle(overlayHelp)
	case key.Matches(msg, m.keymap.Up):
		m.move(DirectionUp)
	case key.Matches(msg, m.keymap.Down):
		m.move(DirectionDown)
	case key.Matches(msg, m.keymap.PageUp):
		m.move(DirectionPageUp)
	case key.Matches(msg, m.keymap.PageDown):
		m.move(DirectionPageDown)
	case key.Matches(msg, m.keymap.Home):
		m.move(DirectionHome)
	case key.Matches(msg, m.keymap.End):
		m.move(DirectionEnd)
	case key.Matches(msg, m.keymap.Left):
		if m.column > 0 {
			m.column--
		}
	case key.Matches(msg, m.keymap.Right):
		if m.column < len(columns)-1 {
			m.column++
		}
	case key.Matches(msg, m.keymap.ToggleSelect):
		if row, ok := m.current(); ok {
			m.engine.ToggleSelection(row.ID)
			m.refresh()
		}
	case key.Matches(msg, m.keymap.SelectAll):
		m.engine.SelectAll()
		m.refresh()
	case key.Matches(msg, m.keymap.DeselectAll), key.Matches(msg, m.keymap.Cancel):
		m.engine.ClearSelection()
		m.refresh()
	case key.Matches(msg, m.keymap.Edit):
		return m.startEdit()
	case key.Matches(msg, m.keymap.ToggleStatus):
		row, ok := m.current()
		if !ok {
			return m, nil
		}
		if m.selection.Count > 0 {
			m.setError(engine.ErrSelectionActive.Error())
			return m, nil
		}
		cmd := m.begin("Updating status", m.toggleStatus(row.ID))
		return m, cmd
	case key.Matches(msg, m.keymap.Search):
		cmd := m.openInput(overlaySearch, m.search, "description")
		return m, cmd
	case key.Matches(msg, m.keymap.AddFilter):
		cmd := m.openInput(overlayFilter, "", "field:operation:value")
		return m, cmd
	case key.Matches(msg, m.keymap.RemoveFilter):
		if n := len(m.filters); n > 0 {
			m.engine.RemoveFilter(m.filters[n-1].ID())
			m.refresh()
		}
	case key.Matches(msg, m.keymap.ClearFilters):
		m.engine.SetActiveFilters(nil)
		m.engine.SetSearch("")
		m.refresh()
	case key.Matches(msg, m.keymap.NextTab):
		view := m.engine.View()
		view.Tab = nextTab(view.Tab)
		m.engine.SetView(view)
		m.cursor = 0
		m.refresh()
	case key.Matches(msg, m.keymap.NextScope):
		view := m.engine.View()
		view.Scope = filter.Scope{Kind: nextScope(view.Scope.Kind)}
		m.engine.SetView(view)
		m.cursor = 0
		m.refresh()
	case key.Matches(msg, m.keymap.Bulk):
		if m.selection.Count == 0 {
			m.setError("Select records first")
			return m, nil
		}
		m.overlay.Open(overlayBulk)
	case key.Matches(msg, m.keymap.Refresh):
		cmd := m.begin("Reloading", m.load())
		return m, cmd
	}
	return m, nil
}

// startEdit opens the cell under the cursor.
func (m Model) startEdit() (tea.Model, tea.Cmd) {
	row, ok := m.current()
	if !ok {
		return m, nil
	}
	col := columns[m.column]
	if _, err := m.engine.StartEdit(row.ID, col.field); err != nil {
		m.setError(err.Error())
		return m, nil
	}
	m.syncEdit()
	m.input.Placeholder = ""
	m.input.Width = col.width - 2
	m.status = ""
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Commit):
		cmd := m.begin("Saving", m.commitEdit(m.session.RecordID))
		return m, cmd
	case key.Matches(msg, m.keymap.Cancel):
		m.engine.CancelEdit()
		m.syncEdit()
		return m, nil
	case key.Matches(msg, m.keymap.NextField):
		m.column = (m.column + 1) % len(columns)
		return m.startEdit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	shown, err := m.engine.UpdateEditBuffer(m.input.Value())
	if err != nil {
		m.setError(err.Error())
		return m, cmd
	}
	if shown != m.input.Value() {
		m.input.SetValue(shown)
		m.input.CursorEnd()
	}
	m.session.Buffer = shown
	return m, cmd
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay.Active() {
	case overlayHelp:
		if key.Matches(msg, m.keymap.Help, m.keymap.Cancel, m.keymap.Quit) {
			m.overlay.Close()
		}
		return m, nil

	case overlayBulk:
		switch msg.String() {
		case "c":
			m.overlay.Close()
			cmd := m.begin("Confirming", m.runBulk(bulk.Request{Op: bulk.OpConfirm}))
			return m, cmd
		case "u":
			m.overlay.Close()
			cmd := m.begin("Duplicating", m.runBulk(bulk.Request{Op: bulk.OpDuplicate}))
			return m, cmd
		case "s":
			cmd := m.openInput(overlayBulkSetField, "", "field=value")
			return m, cmd
		case "d":
			m.overlay.Open(overlayConfirmDelete)
		case "esc", "b", "q":
			m.overlay.Close()
		}
		return m, nil

	case overlayConfirmDelete:
		switch msg.String() {
		case "y", "Y":
			m.overlay.Close()
			cmd := m.begin("Deleting", m.runBulk(bulk.Request{Op: bulk.OpDelete}))
			return m, cmd
		case "n", "N", "esc", "q":
			m.overlay.Close()
		}
		return m, nil
	}
	return m.handleInputKey(msg)
}

// handleInputKey drives the search, filter and set-field popovers.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.closeInput()
		return m, nil
	case key.Matches(msg, m.keymap.Commit):
		return m.submitInput()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	switch m.overlay.Active() {
	case overlaySearch:
		m.engine.SetSearch(strings.TrimSpace(value))
		m.cursor = 0
	case overlayFilter:
		f, err := filter.ParseExpression(m.engine.Catalog(), value)
		if err != nil {
			m.setError(err.Error())
			return m, nil
		}
		m.engine.AddFilter(f)
		m.cursor = 0
	case overlayBulkSetField:
		req, err := parseAssignment(value)
		if err != nil {
			m.setError(err.Error())
			return m, nil
		}
		m.closeInput()
		cmd := m.begin("Updating "+string(req.Field), m.runBulk(req))
		return m, cmd
	}
	m.closeInput()
	m.refresh()
	return m, nil
}

// parseAssignment reads "field=value" into a set-field request.
func parseAssignment(s string) (bulk.Request, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return bulk.Request{}, common.NewValidationError("assignment", s, ErrMalformedAssignment)
	}
	field := model.Field(strings.TrimSpace(name))
	if !field.Valid() {
		return bulk.Request{}, common.NewValidationError("field", string(field), codec.ErrUnknownField)
	}
	return bulk.Request{Op: bulk.OpSetField, Field: field, Value: strings.TrimSpace(value)}, nil
}

func (m *Model) openInput(id, value, placeholder string) tea.Cmd {
	m.overlay.Open(id)
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.Width = 40
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.status = ""
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.overlay.Close()
	m.input.Blur()
	m.input.Reset()
}

// refresh copies everything View needs out of the engine.
func (m *Model) refresh() {
	m.rows = m.engine.Visible()
	m.filters = m.engine.ActiveFilters()
	m.summary = m.engine.Summary()
	m.selection = m.engine.SelectionSummary()
	m.catalog = m.engine.Catalog()
	m.view = m.engine.View()
	m.search = m.engine.Search()

	m.selected = make(map[string]bool, m.selection.Count)
	for _, id := range m.engine.SelectedIDs() {
		m.selected[id] = true
	}

	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
	m.scrollToCursor()
}

// syncEdit mirrors the engine's edit session into the input.
func (m *Model) syncEdit() {
	session, ok := m.engine.EditSession()
	m.editing = ok
	if !ok {
		m.session = edit.Session{}
		if m.overlay.Active() == "" {
			m.input.Blur()
		}
		return
	}
	m.session = session
	m.input.SetValue(session.Buffer)
	m.input.CursorEnd()
}

// report turns the outcome of an action into the status line. A queued
// notification wins over the returned error, which it already describes.
func (m *Model) report(op string, err error, result *bulk.Result) {
	notices := m.notices.Drain()
	switch {
	case len(notices) > 0:
		m.setError(notices[len(notices)-1].Message)
	case err != nil:
		m.setError(err.Error())
	case result != nil:
		m.setInfo(fmt.Sprintf("%s: %d records", op, len(result.Succeeded())))
	default:
		m.setInfo(op + " saved")
	}
}

func (m *Model) setError(msg string) {
	m.status = msg
	m.statusErr = true
}

func (m *Model) setInfo(msg string) {
	m.status = msg
	m.statusErr = false
}

func (m Model) current() (model.Transaction, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return model.Transaction{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) move(dir Direction) {
	page := m.listHeight()
	switch dir {
	case DirectionUp:
		m.cursor--
	case DirectionDown:
		m.cursor++
	case DirectionPageUp:
		m.cursor -= page
	case DirectionPageDown:
		m.cursor += page
	case DirectionHome:
		m.cursor = 0
	case DirectionEnd:
		m.cursor = len(m.rows) - 1
	}
	m.cursor = max(min(m.cursor, len(m.rows)-1), 0)
	m.scrollToCursor()
}

func (m *Model) scrollToCursor() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(m.offset, 0)
}

// listHeight is the number of table rows that fit between header and footer.
func (m Model) listHeight() int {
	const chrome = 8
	h := m.height - chrome
	if m.overlay.Active() != "" {
		h -= 5
	}
	return max(h, 3)
}

func nextTab(current filter.Tab) filter.Tab {
	for i, t := range filter.Tabs {
		if t == current {
			return filter.Tabs[(i+1)%len(filter.Tabs)]
		}
	}
	return filter.TabAll
}

var scopeCycle = []filter.ScopeKind{filter.ScopeAll, filter.ScopeBanks, filter.ScopeCards}

func nextScope(current filter.ScopeKind) filter.ScopeKind {
	for i, s := range scopeCycle {
		if s == current {
			return scopeCycle[(i+1)%len(scopeCycle)]
		}
	}
	return filter.ScopeAll
}
