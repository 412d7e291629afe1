package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/bulk"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/edit"
	"github.com/Veraticus/ledgerflow/internal/filter"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/selection"
	"github.com/Veraticus/ledgerflow/internal/testutil"
)

func fixtures() []model.Transaction {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id, desc, amount string, kind model.Kind, confirmed bool) model.Transaction {
		return model.Transaction{
			ID:           id,
			Date:         base,
			Amount:       decimal.RequireFromString(amount),
			AccountID:    "1",
			Description:  desc,
			Kind:         kind,
			Confirmed:    confirmed,
			Installments: 1,
		}
	}
	card := mk("4", "Assinatura", "40", model.KindOutflow, false)
	card.AccountID = ""
	card.CreditCardID = "9"

	return []model.Transaction{
		mk("1", "Salário", "5000", model.KindInflow, true),
		mk("2", "Supermercado Extra", "150", model.KindOutflow, true),
		mk("3", "Aluguel", "1200", model.KindOutflow, false),
		card,
	}
}

func setup(t *testing.T, opts ...bulk.Option) (*Engine, *testutil.FakeStore, *MockNotifier) {
	t.Helper()
	store := testutil.NewFakeStore(fixtures()...).WithReferences(
		[]model.Account{{ID: "1", Name: "Nubank"}},
		[]model.CreditCard{{ID: "9", Name: "Visa"}},
		[]model.Category{{ID: "c1", Name: "Casa"}},
	)
	notifier := NewMockNotifier()
	e := New(store, notifier, opts...)
	require.NoError(t, e.Load(context.Background()))
	return e, store, notifier
}

func visibleIDs(e *Engine) []string { return e.VisibleIDs() }

func TestEngine_LoadBuildsCatalog(t *testing.T) {
	e, _, _ := setup(t)

	options, err := e.Catalog().Options(filter.FieldAccount)
	require.NoError(t, err)
	assert.Len(t, options, 2)
	assert.Len(t, e.Records(), 4)
}

func TestEngine_LoadFailureNotifiesOnce(t *testing.T) {
	store := testutil.NewFakeStore()
	store.FailOn(testutil.OpList, "", errors.New("down"))
	notifier := NewMockNotifier()

	err := New(store, notifier).Load(context.Background())
	assert.ErrorIs(t, err, common.ErrStore)
	assert.Len(t, notifier.Notifications(), 1)
}

func TestEngine_FiltersSearchAndView(t *testing.T) {
	e, _, _ := setup(t)

	e.SetSearch("SUPER")
	assert.Equal(t, []string{"2"}, visibleIDs(e))
	e.SetSearch("")

	f, err := filter.NewActiveFilter(e.Catalog(), filter.FieldAmount, filter.OpGreaterThan,
		filter.NumberValue(decimal.NewFromInt(100)))
	require.NoError(t, err)
	e.AddFilter(f)
	assert.Equal(t, []string{"1", "2", "3"}, visibleIDs(e))

	e.SetView(filter.View{Tab: filter.TabPayables})
	assert.Equal(t, []string{"3"}, visibleIDs(e))

	assert.True(t, e.RemoveFilter(f.ID()))
	assert.False(t, e.RemoveFilter(f.ID()))
	assert.Equal(t, []string{"3", "4"}, visibleIDs(e))

	e.SetView(filter.View{Tab: filter.TabAll, Scope: filter.Scope{Kind: filter.ScopeCards}})
	assert.Equal(t, []string{"4"}, visibleIDs(e))
}

func TestEngine_Summary(t *testing.T) {
	e, _, _ := setup(t)

	s := e.Summary()
	assert.Equal(t, 4, s.Visible)
	assert.Equal(t, 4, s.Total)
	assert.True(t, decimal.NewFromInt(5000-150-1200-40).Equal(s.Balance), s.Balance.String())

	e.ToggleSelection("3")
	e.ToggleSelection("2")
	sel := e.SelectionSummary()
	assert.Equal(t, 2, sel.Count)
	assert.Equal(t, 1, sel.Pending)
	assert.True(t, decimal.NewFromInt(1350).Equal(sel.Total))
}

func TestEngine_SelectionSuppressesRowActions(t *testing.T) {
	e, store, _ := setup(t)

	_, err := e.StartEdit("2", model.FieldDescription)
	require.NoError(t, err)

	e.ToggleSelection("3")
	assert.Equal(t, selection.ModeBulk, e.Mode())
	_, open := e.EditSession()
	assert.False(t, open, "selecting closes the edit session")

	_, err = e.StartEdit("2", model.FieldDescription)
	assert.ErrorIs(t, err, ErrSelectionActive)
	assert.ErrorIs(t, e.ToggleStatus(context.Background(), "2"), ErrSelectionActive)
	assert.Empty(t, store.MutatingCalls())

	e.ClearSelection()
	assert.Equal(t, selection.ModeInline, e.Mode())
}

func TestEngine_SelectAllUsesVisibleSet(t *testing.T) {
	e, _, _ := setup(t)
	e.SetView(filter.View{Tab: filter.TabPayables})

	e.SelectAll()
	assert.Equal(t, []string{"3", "4"}, e.SelectedIDs())

	e.SelectAll()
	assert.Empty(t, e.SelectedIDs())
}

func TestEngine_InlineEdit(t *testing.T) {
	e, store, notifier := setup(t)
	ctx := context.Background()

	tr, err := e.StartEdit("2", model.FieldAmount)
	require.NoError(t, err)
	assert.Equal(t, edit.Started, tr)

	session, ok := e.EditSession()
	require.True(t, ok)
	assert.Equal(t, "150,00", session.Seed)

	// Unchanged buffer saves nothing.
	require.NoError(t, e.CommitEdit(ctx, "2"))
	assert.Empty(t, store.MutatingCalls())

	_, err = e.StartEdit("2", model.FieldAmount)
	require.NoError(t, err)
	shown, err := e.UpdateEditBuffer("1050")
	require.NoError(t, err)
	assert.Equal(t, "10,50", shown)

	// The local record is untouched until the store confirms.
	r, _ := e.Record("2")
	assert.True(t, decimal.NewFromInt(150).Equal(r.Amount))

	require.NoError(t, e.CommitEdit(ctx, "2"))
	r, _ = e.Record("2")
	assert.True(t, decimal.RequireFromString("10.50").Equal(r.Amount))
	assert.Empty(t, notifier.Notifications())
}

func TestEngine_InlineEditStoreFailure(t *testing.T) {
	e, store, notifier := setup(t)
	store.FailOn(testutil.OpUpdate, "2", errors.New("timeout"))

	_, err := e.StartEdit("2", model.FieldDescription)
	require.NoError(t, err)
	_, err = e.UpdateEditBuffer("Mercado")
	require.NoError(t, err)

	err = e.CommitEdit(context.Background(), "2")
	assert.ErrorIs(t, err, common.ErrStore)
	require.Len(t, notifier.Notifications(), 1)
	assert.Equal(t, "update description", notifier.Notifications()[0].Op)

	r, _ := e.Record("2")
	assert.Equal(t, "Supermercado Extra", r.Description)
	_, open := e.EditSession()
	assert.True(t, open)
}

func TestEngine_InlineEditValidationIsNotNotified(t *testing.T) {
	e, _, notifier := setup(t)

	_, err := e.StartEdit("2", model.FieldDate)
	require.NoError(t, err)
	_, err = e.UpdateEditBuffer("soon")
	require.NoError(t, err)

	err = e.CommitEdit(context.Background(), "2")
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, notifier.Notifications())
}

func TestEngine_StartEditUnknownRecord(t *testing.T) {
	e, _, _ := setup(t)
	_, err := e.StartEdit("missing", model.FieldDescription)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestEngine_CancelEdit(t *testing.T) {
	e, store, _ := setup(t)

	_, err := e.StartEdit("2", model.FieldDescription)
	require.NoError(t, err)
	_, err = e.UpdateEditBuffer("changed")
	require.NoError(t, err)

	e.CancelEdit()
	_, open := e.EditSession()
	assert.False(t, open)
	assert.Empty(t, store.MutatingCalls())
}

func TestEngine_ToggleStatus(t *testing.T) {
	e, store, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, e.ToggleStatus(ctx, "4"))
	assert.Len(t, store.CallsFor(testutil.OpConfirmCard), 1)
	r, _ := e.Record("4")
	assert.True(t, r.Confirmed)

	require.NoError(t, e.ToggleStatus(ctx, "2"))
	r, _ = e.Record("2")
	assert.False(t, r.Confirmed)

	require.NoError(t, e.ToggleStatus(ctx, "4"))
	r, _ = e.Record("4")
	assert.False(t, r.Confirmed)
	assert.Len(t, store.CallsFor(testutil.OpConfirmCard), 1)
}

func TestEngine_BulkDeletePartialFailure(t *testing.T) {
	e, store, notifier := setup(t)
	store.FailOn(testutil.OpDelete, "2", errors.New("server error"))

	for _, id := range []string{"1", "2", "3"} {
		e.ToggleSelection(id)
	}

	_, err := e.RunBulk(context.Background(), bulk.Request{Op: bulk.OpDelete}, nil)
	require.Error(t, err)

	assert.Len(t, e.Records(), 4, "nothing removed locally")
	assert.Len(t, notifier.Notifications(), 1)
	assert.Contains(t, notifier.Notifications()[0].Message, "1 of 3")
	assert.Equal(t, []string{"1", "2", "3"}, e.SelectedIDs())
}

func TestEngine_BulkApplySucceededPolicy(t *testing.T) {
	e, store, notifier := setup(t, bulk.WithPolicy(bulk.ApplySucceeded))
	store.FailOn(testutil.OpDelete, "2", errors.New("server error"))

	for _, id := range []string{"1", "2", "3"} {
		e.ToggleSelection(id)
	}

	_, err := e.RunBulk(context.Background(), bulk.Request{Op: bulk.OpDelete}, nil)
	require.Error(t, err)

	var ids []string
	for _, r := range e.Records() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"2", "4"}, ids)
	assert.Equal(t, []string{"2"}, e.SelectedIDs(), "failed ids stay selected for retry")
	assert.Len(t, notifier.Notifications(), 1)
}

func TestEngine_BulkDuplicate(t *testing.T) {
	e, _, _ := setup(t, bulk.WithClock(func() time.Time {
		return time.Date(2024, 7, 4, 9, 0, 0, 0, time.UTC)
	}))

	e.ToggleSelection("2")
	result, err := e.RunBulk(context.Background(), bulk.Request{Op: bulk.OpDuplicate}, nil)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)

	created := result.Outcomes[0].Record
	require.NotNil(t, created)
	assert.NotEqual(t, "2", created.ID)
	assert.False(t, created.Confirmed)
	assert.Equal(t, time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), created.Date)

	assert.Len(t, e.Records(), 5)
	_, ok := e.Record(created.ID)
	assert.True(t, ok)
	assert.Equal(t, selection.ModeInline, e.Mode())
}

func TestEngine_BulkSetField(t *testing.T) {
	e, _, _ := setup(t)

	e.ToggleSelection("2")
	e.ToggleSelection("3")
	_, err := e.RunBulk(context.Background(),
		bulk.Request{Op: bulk.OpSetField, Field: model.FieldCategory, Value: "c1"}, nil)
	require.NoError(t, err)

	for _, id := range []string{"2", "3"} {
		r, _ := e.Record(id)
		assert.Equal(t, "c1", r.CategoryID)
		assert.Equal(t, "Casa", r.CategoryName)
	}
}

func TestEngine_BulkValidation(t *testing.T) {
	e, store, notifier := setup(t)

	_, err := e.RunBulk(context.Background(), bulk.Request{Op: bulk.OpDelete}, nil)
	assert.ErrorIs(t, err, ErrEmptySelection)

	e.ToggleSelection("2")
	_, err = e.RunBulk(context.Background(),
		bulk.Request{Op: bulk.OpSetField, Field: model.FieldDescription, Value: ""}, nil)
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Empty(t, store.MutatingCalls())
	assert.Empty(t, notifier.Notifications())
	assert.Equal(t, []string{"2"}, e.SelectedIDs())
}
