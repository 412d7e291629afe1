// Package testutil provides shared fixtures for tests: a migrated SQLite
// store and an in-memory fake store with failure injection.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/storage"
)

// Seed lists the reference data a test database starts with.
type Seed struct {
	Accounts    []model.Account
	CreditCards []model.CreditCard
	Categories  []string
}

// DefaultSeed is one bank account, one card and two categories.
func DefaultSeed() Seed {
	return Seed{
		Accounts:    []model.Account{{ID: "acc1", Name: "Nubank", Type: "checking"}},
		CreditCards: []model.CreditCard{{ID: "card1", Name: "Visa", Brand: "visa"}},
		Categories:  []string{"Mercado", "Casa"},
	}
}

// TestDB is a migrated in-memory database.
type TestDB struct {
	Storage    *storage.SQLiteStorage
	t          *testing.T
	Categories map[string]model.Category
}

// SetupTestDB creates a new in-memory test database seeded with seed.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T, seed Seed) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for _, a := range seed.Accounts {
		if err := store.SaveAccount(ctx, a); err != nil {
			t.Fatalf("failed to seed account %q: %v", a.ID, err)
		}
	}
	for _, c := range seed.CreditCards {
		if err := store.SaveCreditCard(ctx, c); err != nil {
			t.Fatalf("failed to seed credit card %q: %v", c.ID, err)
		}
	}

	categories := make(map[string]model.Category, len(seed.Categories))
	for _, name := range seed.Categories {
		cat, err := store.CreateCategory(ctx, name)
		if err != nil {
			t.Fatalf("failed to seed category %q: %v", name, err)
		}
		categories[name] = *cat
	}

	return &TestDB{Storage: store, Categories: categories, t: t}
}

// MustCreate stores txn and fails the test on error.
func (db *TestDB) MustCreate(txn model.Transaction) model.Transaction {
	db.t.Helper()
	created, err := db.Storage.CreateTransaction(context.Background(), txn)
	if err != nil {
		db.t.Fatalf("failed to create transaction: %v", err)
	}
	return *created
}

// MustGetCategory returns the seeded category called name or fails the test.
func (db *TestDB) MustGetCategory(name string) model.Category {
	db.t.Helper()
	cat, ok := db.Categories[name]
	if !ok {
		db.t.Fatalf("category %q was not seeded", name)
	}
	return cat
}
