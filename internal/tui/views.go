package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/filter"
	"github.com/Veraticus/ledgerflow/internal/model"
)

type column struct {
	field model.Field
	title string
	width int
	right bool
}

// columns are the editable cells of a row, in display order.
var columns = []column{
	{field: model.FieldDate, title: "Date", width: 11},
	{field: model.FieldAccount, title: "Source", width: 16},
	{field: model.FieldBeneficiary, title: "Beneficiary", width: 16},
	{field: model.FieldDescription, title: "Description", width: 28},
	{field: model.FieldCategory, title: "Category", width: 14},
	{field: model.FieldAmount, title: "Amount", width: 14, right: true},
	{field: model.FieldKind, title: "Type", width: 9},
}

var tabLabels = map[filter.Tab]string{
	filter.TabAll:         "All",
	filter.TabInflows:     "Inflows",
	filter.TabOutflows:    "Outflows",
	filter.TabReceivables: "Receivables",
	filter.TabPayables:    "Payables",
}

var scopeLabels = map[filter.ScopeKind]string{
	filter.ScopeAll:    "all sources",
	filter.ScopeBanks:  "bank accounts",
	filter.ScopeCards:  "credit cards",
	filter.ScopeSource: "one source",
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.renderLoading()
	}

	sections := []string{
		m.renderHeader(),
		m.renderTable(),
		m.renderFooter(),
	}
	if overlay := m.renderOverlay(); overlay != "" {
		sections = append(sections, overlay)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderLoading renders the loading screen.
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.Title.Render("📒 ledgerflow"),
		"",
		m.spinner.View()+" "+lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Loading transactions..."),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderHeader() string {
	tabs := make([]string, len(filter.Tabs))
	for i, t := range filter.Tabs {
		if t == m.view.Tab {
			tabs[i] = m.theme.ActiveTab.Render(tabLabels[t])
		} else {
			tabs[i] = m.theme.Tab.Render(tabLabels[t])
		}
	}
	title := lipgloss.JoinHorizontal(lipgloss.Top,
		m.theme.Title.Render("📒 ledgerflow  "),
		strings.Join(tabs, ""),
		m.theme.Subtitle.Render("  · "+scopeLabels[m.view.Scope.Kind]),
	)

	var chips []string
	if m.search != "" {
		chips = append(chips, m.theme.Chip.Render(fmt.Sprintf("search %q", m.search)))
	}
	for _, f := range m.filters {
		chips = append(chips, m.theme.Chip.Render(f.Label()))
	}
	line := m.theme.Subtitle.Render("no filters")
	if len(chips) > 0 {
		line = strings.Join(chips, " ")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, line)
}

func (m Model) renderTable() string {
	var b strings.Builder

	header := []string{"   "}
	for _, col := range columns {
		header = append(header, cell(m.theme.Header, col, col.title))
	}
	b.WriteString(strings.Join(header, " "))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(m.theme.StatusPending.Render("No transactions match the current view."))
		return b.String()
	}

	end := min(m.offset+m.listHeight(), len(m.rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i, m.rows[i]))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderRow(index int, t model.Transaction) string {
	mark := " "
	if m.selected[t.ID] {
		mark = m.theme.Selected.Render("●")
	}
	status := m.theme.StatusSuccess.Render("✓")
	if !t.Confirmed {
		status = m.theme.StatusPending.Render("○")
	}

	parts := []string{mark + status + " "}
	for c, col := range columns {
		style := m.theme.Normal
		if col.field == model.FieldAmount {
			style = m.theme.Outflow
			if t.Kind == model.KindInflow {
				style = m.theme.Inflow
			}
		}

		onCursor := index == m.cursor && c == m.column
		switch {
		case m.editing && m.session.RecordID == t.ID && m.session.Field == col.field:
			parts = append(parts, cell(m.theme.Highlighted, column{width: col.width}, m.input.View()))
		case onCursor:
			parts = append(parts, cell(m.theme.Cursor, col, m.cellText(t, col.field)))
		default:
			parts = append(parts, cell(style, col, m.cellText(t, col.field)))
		}
	}
	return strings.Join(parts, " ")
}

// cell fits text into the column on one line.
func cell(style lipgloss.Style, col column, text string) string {
	s := style.Inline(true).Width(col.width).MaxWidth(col.width)
	if col.right {
		s = s.Align(lipgloss.Right)
	}
	return s.Render(text)
}

func (m Model) cellText(t model.Transaction, field model.Field) string {
	switch field {
	case model.FieldDate:
		return t.Date.Format(model.DateLayout)
	case model.FieldAccount:
		if m.catalog == nil {
			return ""
		}
		return m.catalog.SourceLabel(t)
	case model.FieldBeneficiary:
		return t.BeneficiaryName
	case model.FieldDescription:
		if t.Installments > 1 {
			return fmt.Sprintf("%s %d/%d", t.Description, t.Installment, t.Installments)
		}
		return t.Description
	case model.FieldCategory:
		return t.CategoryName
	case model.FieldAmount:
		return m.money(t.SignedAmount())
	case model.FieldKind:
		return string(t.Kind)
	}
	return ""
}

func (m Model) money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + m.currency.Format(d)
	}
	return "+" + m.currency.Format(d)
}

func (m Model) renderFooter() string {
	summary := fmt.Sprintf("%s of %s records · balance %s",
		humanize.Comma(int64(m.summary.Visible)),
		humanize.Comma(int64(m.summary.Total)),
		m.money(m.summary.Balance))
	lines := []string{m.theme.Bold.Render(summary)}

	if m.selection.Count > 0 {
		lines = append(lines, m.theme.Selected.Render(fmt.Sprintf("%d selected · %s · %d pending",
			m.selection.Count, m.currency.Format(m.selection.Total), m.selection.Pending)))
	}

	switch {
	case m.busy:
		progress := ""
		if done, total := m.progress.get(); total > 0 {
			progress = fmt.Sprintf(" %d/%d", done, total)
		}
		lines = append(lines, m.spinner.View()+" "+m.busyLabel+"..."+progress)
	case m.status != "" && m.statusErr:
		lines = append(lines, m.theme.StatusError.Render("✗ "+m.status))
	case m.status != "":
		lines = append(lines, m.theme.StatusInfo.Render(m.status))
	}

	if m.overlay.Active() == "" {
		lines = append(lines, m.help.ShortHelpView(m.keymap.ShortHelp()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderOverlay() string {
	var content string
	switch m.overlay.Active() {
	case overlayHelp:
		content = m.help.FullHelpView(m.keymap.FullHelp())
	case overlayBulk:
		content = lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Bold.Render(fmt.Sprintf("Bulk actions on %d records", m.selection.Count)),
			"c confirm   u duplicate   s set field   d delete   esc close",
		)
	case overlayConfirmDelete:
		content = m.theme.StatusWarning.Render(fmt.Sprintf("Delete %d records? This cannot be undone. (y/n)", m.selection.Count))
	case overlaySearch:
		content = lipgloss.JoinVertical(lipgloss.Left, m.theme.Bold.Render("Search"), m.input.View())
	case overlayFilter:
		content = lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Bold.Render("Add filter"),
			m.input.View(),
			m.theme.Subtitle.Render("fields: "+m.fieldKeys()),
		)
	case overlayBulkSetField:
		content = lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Bold.Render(fmt.Sprintf("Set a field on %d records", m.selection.Count)),
			m.input.View(),
			m.theme.Subtitle.Render("e.g. category=12, account=card-3, amount=10,00"),
		)
	default:
		return ""
	}
	return m.theme.RoundedBox.Render(content)
}

func (m Model) fieldKeys() string {
	if m.catalog == nil {
		return ""
	}
	fields := m.catalog.Fields()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return strings.Join(keys, " ")
}
