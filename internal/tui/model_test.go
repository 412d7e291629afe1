package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/bulk"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/engine"
	"github.com/Veraticus/ledgerflow/internal/filter"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/selection"
	"github.com/Veraticus/ledgerflow/internal/testutil"
)

func testRecords() []model.Transaction {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return []model.Transaction{
		{
			ID: "1", Date: day, Amount: decimal.NewFromInt(120), AccountID: "1",
			Description: "Mercado Extra", Kind: model.KindOutflow, Installments: 1,
		},
		{
			ID: "2", Date: day, Amount: decimal.NewFromInt(5000), AccountID: "1",
			Description: "Salário", Kind: model.KindInflow, Installments: 1, Confirmed: true,
		},
		{
			ID: "3", Date: day, Amount: decimal.NewFromInt(40), CreditCardID: "1",
			Description: "Streaming", Kind: model.KindOutflow, Installment: 2, Installments: 12,
		},
	}
}

func newTestModel(t *testing.T) (Model, *testutil.FakeStore) {
	t.Helper()
	store := testutil.NewFakeStore(testRecords()...).WithReferences(
		[]model.Account{{ID: "1", Name: "Nubank"}},
		[]model.CreditCard{{ID: "1", Name: "Visa"}},
		[]model.Category{{ID: "10", Name: "Mercado"}},
	)
	notices := NewNotices()
	cfg := defaultConfig()
	cfg.Notices = notices

	m := newModel(context.Background(), engine.New(store, notices), cfg)
	m = send(t, m, m.load()())
	require.True(t, m.ready)
	require.False(t, m.busy)
	return m, store
}

func keyMsg(k string) tea.KeyMsg {
	special := map[string]tea.KeyType{
		"enter":     tea.KeyEnter,
		"esc":       tea.KeyEsc,
		"tab":       tea.KeyTab,
		"backspace": tea.KeyBackspace,
		"up":        tea.KeyUp,
		"down":      tea.KeyDown,
		"left":      tea.KeyLeft,
		"right":     tea.KeyRight,
		"ctrl+a":    tea.KeyCtrlA,
		"ctrl+c":    tea.KeyCtrlC,
		"ctrl+d":    tea.KeyCtrlD,
		"ctrl+r":    tea.KeyCtrlR,
		"ctrl+u":    tea.KeyCtrlU,
	}
	if kt, ok := special[k]; ok {
		return tea.KeyMsg{Type: kt}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// press sends keys without running the commands they return.
func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = send(t, m, keyMsg(k))
	}
	return m
}

// pressAndWait sends a key that starts a store-backed action and feeds the
// action's result back, the way the program loop would.
func pressAndWait(t *testing.T, m Model, k string) Model {
	t.Helper()
	next, cmd := m.Update(keyMsg(k))
	m = next.(Model)
	require.True(t, m.busy, "key %q should start an action", k)
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case loadedMsg, opDoneMsg:
			m = send(t, m, msg)
		}
	}
	require.False(t, m.busy)
	return m
}

func TestModel_LoadsAndRenders(t *testing.T) {
	m, _ := newTestModel(t)

	assert.Len(t, m.rows, 3)
	assert.Equal(t, "Loaded 3 records", m.status)

	view := m.View()
	assert.Contains(t, view, "3 of 3 records")
	assert.Contains(t, view, "Mercado Extra")
	assert.Contains(t, view, "Streaming 2/12")
	assert.Contains(t, view, "Nubank")
}

func TestModel_LoadFailureIsReported(t *testing.T) {
	store := testutil.NewFakeStore()
	store.FailOn(testutil.OpListAccounts, "", errors.New("connection refused"))
	notices := NewNotices()
	cfg := defaultConfig()
	cfg.Notices = notices

	m := newModel(context.Background(), engine.New(store, notices), cfg)
	m = send(t, m, m.load()())

	assert.True(t, m.ready)
	assert.True(t, m.statusErr)
	assert.Equal(t, "Could not load accounts", m.status)
	assert.Empty(t, notices.Drain())
}

func TestModel_Navigation(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "down", "down", "down")
	assert.Equal(t, 2, m.cursor)

	m = press(t, m, "up")
	assert.Equal(t, 1, m.cursor)

	m = press(t, m, "g")
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, "G")
	assert.Equal(t, 2, m.cursor)

	m = press(t, m, "left")
	assert.Equal(t, 0, m.column)
	for range columns {
		m = press(t, m, "right")
	}
	assert.Equal(t, len(columns)-1, m.column)
}

func TestModel_InlineEditCommit(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "right", "right", "right") // description
	m = press(t, m, "e")
	require.True(t, m.editing)
	assert.Equal(t, "Mercado Extra", m.input.Value())

	m = press(t, m, "ctrl+u", "Padaria")
	assert.Equal(t, "Padaria", m.session.Buffer)

	m = pressAndWait(t, m, "enter")
	assert.False(t, m.editing)
	assert.False(t, m.statusErr)

	saved, ok := store.Record("1")
	require.True(t, ok)
	assert.Equal(t, "Padaria", saved.Description)
	assert.Equal(t, "Padaria", m.rows[0].Description)
}

func TestModel_AmountEditIsMaskedAndCancellable(t *testing.T) {
	m, store := newTestModel(t)

	for range 5 {
		m = press(t, m, "right")
	}
	require.Equal(t, model.FieldAmount, columns[m.column].field)

	m = press(t, m, "enter", "ctrl+u", "1050")
	assert.Equal(t, "10,50", m.input.Value())

	m = press(t, m, "esc")
	assert.False(t, m.editing)
	assert.Empty(t, store.MutatingCalls())
}

func TestModel_EditStoreFailureKeepsSession(t *testing.T) {
	m, store := newTestModel(t)
	store.FailOn(testutil.OpUpdate, "", errors.New("backend down"))

	m = press(t, m, "right", "right", "right", "e", "ctrl+u", "Padaria")
	m = pressAndWait(t, m, "enter")

	assert.True(t, m.editing)
	assert.True(t, m.statusErr)
	assert.Equal(t, "Could not update description", m.status)
	assert.Equal(t, "Mercado Extra", m.rows[0].Description)
}

func TestModel_EditValidationError(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "right", "right", "right", "e", "ctrl+u")
	m = pressAndWait(t, m, "enter")

	// An emptied required text closes the session without saving.
	assert.False(t, m.editing)
	assert.Empty(t, store.MutatingCalls())

	m = press(t, m, "left", "left", "left", "e", "ctrl+u", "2024-13-45")
	m = pressAndWait(t, m, "enter")
	assert.True(t, m.editing)
	assert.True(t, m.statusErr)
	assert.Empty(t, store.MutatingCalls())
}

func TestModel_SelectionAndBulkConfirm(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "x", "down", "down", "x")
	assert.Equal(t, 2, m.selection.Count)
	assert.Equal(t, 2, m.selection.Pending)
	assert.Contains(t, m.View(), "2 selected")

	m = press(t, m, "b")
	require.True(t, m.overlay.IsOpen(overlayBulk))

	m = pressAndWait(t, m, "c")
	assert.Equal(t, "", m.overlay.Active())
	assert.Zero(t, m.selection.Count)
	assert.Equal(t, "bulk confirm: 2 records", m.status)

	for _, id := range []string{"1", "3"} {
		r, _ := store.Record(id)
		assert.True(t, r.Confirmed, id)
	}
	assert.Len(t, store.CallsFor(testutil.OpConfirmCard), 1)
}

func TestModel_BulkDeleteAsksFirst(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "ctrl+a", "b", "d")
	require.True(t, m.overlay.IsOpen(overlayConfirmDelete))
	assert.Contains(t, m.View(), "Delete 3 records?")

	m = press(t, m, "n")
	assert.Equal(t, "", m.overlay.Active())
	assert.Equal(t, 3, store.Len())

	m = press(t, m, "b", "d")
	m = pressAndWait(t, m, "y")
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, m.rows)
	assert.Contains(t, m.View(), "No transactions match")
}

func TestModel_BulkSetField(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "x", "down", "x", "b", "s")
	require.True(t, m.overlay.IsOpen(overlayBulkSetField))

	m = press(t, m, "kind")
	m = press(t, m, "enter")
	assert.True(t, m.statusErr)
	assert.True(t, m.overlay.IsOpen(overlayBulkSetField))

	m = press(t, m, "ctrl+u", "kind=transfer")
	m = pressAndWait(t, m, "enter")

	for _, id := range []string{"1", "2"} {
		r, _ := store.Record(id)
		assert.Equal(t, model.KindTransfer, r.Kind, id)
	}
	r, _ := store.Record("3")
	assert.Equal(t, model.KindOutflow, r.Kind)
}

func TestModel_BulkFailureNotifiesOnce(t *testing.T) {
	m, store := newTestModel(t)
	store.FailOn(testutil.OpDelete, "3", errors.New("locked"))

	m = press(t, m, "ctrl+a", "b", "d")
	m = pressAndWait(t, m, "y")

	assert.True(t, m.statusErr)
	assert.Equal(t, "Could not bulk delete: 1 of 3 records failed", m.status)
	// All-or-nothing keeps every record and the selection.
	assert.Len(t, m.rows, 3)
	assert.Equal(t, 3, m.selection.Count)
}

func TestModel_RowActionsBlockedWhileSelected(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "x", "c")
	assert.False(t, m.busy)
	assert.True(t, m.statusErr)
	assert.Equal(t, engine.ErrSelectionActive.Error(), m.status)

	m = press(t, m, "e")
	assert.False(t, m.editing)
	assert.Empty(t, store.MutatingCalls())
}

func TestModel_EscLeavesSelectionMode(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "x", "down", "x")
	require.Equal(t, 2, m.selection.Count)
	require.Equal(t, selection.ModeBulk, m.engine.Mode())

	m = press(t, m, "esc")
	assert.Equal(t, 0, m.selection.Count)
	assert.Equal(t, selection.ModeInline, m.engine.Mode())
	assert.Empty(t, m.engine.SelectedIDs())
	assert.Empty(t, store.MutatingCalls())

	m = press(t, m, "e")
	assert.True(t, m.editing)
}

func TestModel_ToggleStatus(t *testing.T) {
	m, store := newTestModel(t)

	m = pressAndWait(t, m, "c")
	r, _ := store.Record("1")
	assert.True(t, r.Confirmed)
	assert.True(t, m.rows[0].Confirmed)
}

func TestModel_FiltersAndSearch(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "f")
	require.True(t, m.overlay.IsOpen(overlayFilter))
	m = press(t, m, "bogus", "enter")
	assert.True(t, m.statusErr)
	assert.True(t, m.overlay.IsOpen(overlayFilter))

	m = press(t, m, "ctrl+u", "type:is:outflow", "enter")
	assert.Equal(t, "", m.overlay.Active())
	require.Len(t, m.filters, 1)
	assert.Len(t, m.rows, 2)
	assert.Contains(t, m.View(), "Type is Outflow")

	m = press(t, m, "/", "stream", "enter")
	assert.Equal(t, "stream", m.search)
	require.Len(t, m.rows, 1)
	assert.Equal(t, "3", m.rows[0].ID)

	m = press(t, m, "backspace")
	assert.Empty(t, m.filters)
	assert.Len(t, m.rows, 1)

	m = press(t, m, "F")
	assert.Empty(t, m.search)
	assert.Len(t, m.rows, 3)
}

func TestModel_TabsAndScope(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "tab")
	assert.Equal(t, filter.TabInflows, m.view.Tab)
	require.Len(t, m.rows, 1)
	assert.Equal(t, "2", m.rows[0].ID)

	// Back to all, then narrow to cards.
	for range len(filter.Tabs) - 1 {
		m = press(t, m, "tab")
	}
	assert.Equal(t, filter.TabAll, m.view.Tab)

	m = press(t, m, "s", "s")
	assert.Equal(t, filter.ScopeCards, m.view.Scope.Kind)
	require.Len(t, m.rows, 1)
	assert.Equal(t, "3", m.rows[0].ID)
}

func TestModel_BusyIgnoresKeys(t *testing.T) {
	m, _ := newTestModel(t)
	m.busy = true

	m = press(t, m, "down", "x")
	assert.Equal(t, 0, m.cursor)
	assert.Zero(t, m.selection.Count)

	next, cmd := m.Update(keyMsg("ctrl+c"))
	assert.True(t, next.(Model).quitting)
	assert.NotNil(t, cmd)
}

func TestModel_HelpOverlay(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "?")
	assert.True(t, m.overlay.IsOpen(overlayHelp))
	assert.Contains(t, m.View(), "clear filters")

	// Keys other than close do nothing while help is up.
	m = press(t, m, "down")
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, "esc")
	assert.Equal(t, "", m.overlay.Active())
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    bulk.Request
		wantErr bool
	}{
		{
			name:  "category",
			input: "category = 10",
			want:  bulk.Request{Op: bulk.OpSetField, Field: model.FieldCategory, Value: "10"},
		},
		{
			name:  "value keeps inner equals",
			input: "description=a=b",
			want:  bulk.Request{Op: bulk.OpSetField, Field: model.FieldDescription, Value: "a=b"},
		},
		{
			name:    "missing equals",
			input:   "category",
			wantErr: true,
		},
		{
			name:    "unknown field",
			input:   "notes=x",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssignment(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
