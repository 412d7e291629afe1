package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
)

// createTestStorage opens a migrated database seeded with one account and one card.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.SaveAccount(ctx, model.Account{ID: "acc1", Name: "Nubank", Type: "checking"}))
	require.NoError(t, store.SaveCreditCard(ctx, model.CreditCard{ID: "card1", Name: "Visa", Brand: "visa"}))
	return store
}

func draft(desc string) model.Transaction {
	return model.Transaction{
		Date:         time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.RequireFromString("42.50"),
		AccountID:    "acc1",
		Description:  desc,
		Kind:         model.KindOutflow,
		Installments: 1,
	}
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Migrate(context.Background()))
	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Migrating twice is a no-op.
	require.NoError(t, store.Migrate(context.Background()))
}

func TestSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage(" ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSQLiteStorage_CreateAndList(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	created, err := store.CreateTransaction(ctx, draft("Padaria"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, decimal.RequireFromString("42.5").Equal(created.Amount))
	assert.Equal(t, "acc1", created.AccountID)
	assert.False(t, created.Confirmed)

	list, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *created, list[0])
}

func TestSQLiteStorage_CreateRejectsInvalid(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	both := draft("x")
	both.CreditCardID = "card1"
	_, err := store.CreateTransaction(ctx, both)
	assert.ErrorIs(t, err, ErrInvalidTransaction)
	assert.ErrorIs(t, err, model.ErrTwoSources)

	none := draft("x")
	none.AccountID = ""
	_, err = store.CreateTransaction(ctx, none)
	assert.ErrorIs(t, err, model.ErrNoSource)
}

func TestSQLiteStorage_Update(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	created, err := store.CreateTransaction(ctx, draft("Padaria"))
	require.NoError(t, err)

	category, err := store.CreateCategory(ctx, "Mercado")
	require.NoError(t, err)

	card := model.SourceRef{Type: model.SourceCard, ID: "card1"}
	updated, err := store.UpdateTransaction(ctx, created.ID, model.TransactionPatch{
		Source:     &card,
		CategoryID: &category.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, updated.AccountID)
	assert.Equal(t, "card1", updated.CreditCardID)
	assert.Equal(t, "Mercado", updated.CategoryName)
	assert.Equal(t, "Padaria", updated.Description)

	cleared := ""
	updated, err = store.UpdateTransaction(ctx, created.ID, model.TransactionPatch{CategoryID: &cleared})
	require.NoError(t, err)
	assert.Empty(t, updated.CategoryID)

	_, err = store.UpdateTransaction(ctx, "missing", model.TransactionPatch{CategoryID: &cleared})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_Delete(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	created, err := store.CreateTransaction(ctx, draft("Padaria"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteTransaction(ctx, created.ID))
	assert.ErrorIs(t, store.DeleteTransaction(ctx, created.ID), ErrNotFound)

	list, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLiteStorage_ConfirmCreditCardCharge(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	charge := draft("Streaming")
	charge.AccountID = ""
	charge.CreditCardID = "card1"
	created, err := store.CreateTransaction(ctx, charge)
	require.NoError(t, err)

	confirmed, err := store.ConfirmCreditCardCharge(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, confirmed.Confirmed)

	var settled bool
	require.NoError(t, store.db.QueryRow(
		`SELECT settled_at IS NOT NULL FROM transactions WHERE id = ?`, created.ID).Scan(&settled))
	assert.True(t, settled)

	_, err = store.ConfirmCreditCardCharge(ctx, created.ID)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)

	bank, err := store.CreateTransaction(ctx, draft("Padaria"))
	require.NoError(t, err)
	_, err = store.ConfirmCreditCardCharge(ctx, bank.ID)
	assert.ErrorIs(t, err, ErrNotCardCharge)
}

func TestSQLiteStorage_ImportSkipsDuplicates(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	batch := []model.Transaction{draft("A"), draft("B")}
	n, err := store.ImportTransactions(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.ImportTransactions(ctx, append(batch, draft("C")))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.ImportTransactions(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptySlice)

	// Records created interactively never collide with each other.
	_, err = store.CreateTransaction(ctx, draft("A"))
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, draft("A"))
	require.NoError(t, err)

	list, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 5)
}

func TestSQLiteStorage_ResolveOrCreateBeneficiary(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first, err := store.ResolveOrCreateBeneficiary(ctx, "  Padaria Central ")
	require.NoError(t, err)
	assert.Equal(t, "Padaria Central", first.Name)

	again, err := store.ResolveOrCreateBeneficiary(ctx, "padaria central")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	all, err := store.ListBeneficiaries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = store.ResolveOrCreateBeneficiary(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyString)

	created, err := store.CreateTransaction(ctx, draft("Pão"))
	require.NoError(t, err)
	updated, err := store.UpdateTransaction(ctx, created.ID, model.TransactionPatch{BeneficiaryID: &first.ID})
	require.NoError(t, err)
	assert.Equal(t, "Padaria Central", updated.BeneficiaryName)
}

func TestSQLiteStorage_References(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAccount(ctx, model.Account{ID: "acc1", Name: "Nubank PJ"}))
	require.NoError(t, store.SaveAccount(ctx, model.Account{ID: "acc2", Name: "Itaú"}))

	accounts, err := store.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Account{{ID: "acc2", Name: "Itaú"}, {ID: "acc1", Name: "Nubank PJ"}}, accounts)

	cards, err := store.ListCreditCards(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.CreditCard{{ID: "card1", Name: "Visa", Brand: "visa"}}, cards)

	_, err = store.CreateCategory(ctx, "Casa")
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, "Casa")
	assert.Error(t, err)

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Casa", categories[0].Name)
}
