// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// TransactionStore is the authoritative owner of transaction records.
type TransactionStore interface {
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, txn model.Transaction) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, patch model.TransactionPatch) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	// ConfirmCreditCardCharge marks a card charge as settled by its invoice
	// payment. It is not interchangeable with setting Confirmed through an update.
	ConfirmCreditCardCharge(ctx context.Context, id string) (*model.Transaction, error)
}

// ReferenceStore serves the id/name collections the engine needs for options and lookups.
type ReferenceStore interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListCreditCards(ctx context.Context) ([]model.CreditCard, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListBeneficiaries(ctx context.Context) ([]model.Beneficiary, error)
	// ResolveOrCreateBeneficiary returns the beneficiary named name, creating it if needed.
	ResolveOrCreateBeneficiary(ctx context.Context, name string) (*model.Beneficiary, error)
}

// Store is everything the engine consumes from its backing store.
type Store interface {
	TransactionStore
	ReferenceStore
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
