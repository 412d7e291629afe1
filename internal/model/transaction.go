// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the direction of money for a transaction.
type Kind string

// Transaction kinds.
const (
	KindInflow   Kind = "inflow"
	KindOutflow  Kind = "outflow"
	KindTransfer Kind = "transfer"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInflow, KindOutflow, KindTransfer:
		return true
	}
	return false
}

// DateLayout is the calendar-date layout used for dates everywhere in the engine.
const DateLayout = "2006-01-02"

// Transaction validation errors.
var (
	ErrMissingID          = errors.New("missing id")
	ErrMissingDate        = errors.New("missing date")
	ErrNoSource           = errors.New("transaction needs an account or a credit card")
	ErrTwoSources         = errors.New("transaction cannot have both an account and a credit card")
	ErrNegativeAmount     = errors.New("amount must be a non-negative magnitude")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidInstallment = errors.New("invalid installment position")
)

// Transaction is a single ledger entry owned by the transaction store.
type Transaction struct {
	Date            time.Time
	Amount          decimal.Decimal
	ID              string
	AccountID       string
	CreditCardID    string
	BeneficiaryID   string
	BeneficiaryName string
	Description     string
	CategoryID      string
	CategoryName    string
	Kind            Kind
	Installment     int
	Installments    int
	Confirmed       bool
}

// Source returns the account or credit card backing the transaction.
func (t Transaction) Source() SourceRef {
	if t.AccountID != "" {
		return SourceRef{Type: SourceAccount, ID: t.AccountID}
	}
	if t.CreditCardID != "" {
		return SourceRef{Type: SourceCard, ID: t.CreditCardID}
	}
	return SourceRef{}
}

// IsCardCharge reports whether the transaction is backed by a credit card.
func (t Transaction) IsCardCharge() bool {
	return t.AccountID == "" && t.CreditCardID != ""
}

// Validate checks the record invariants the engine relies on.
func (t Transaction) Validate() error {
	if t.ID == "" {
		return ErrMissingID
	}
	return t.ValidateDraft()
}

// ValidateDraft checks everything except the id, for records not yet created.
func (t Transaction) ValidateDraft() error {
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	switch {
	case t.AccountID == "" && t.CreditCardID == "":
		return ErrNoSource
	case t.AccountID != "" && t.CreditCardID != "":
		return ErrTwoSources
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, t.Kind)
	}
	if t.Installments < 1 {
		return fmt.Errorf("%w: total %d", ErrInvalidInstallment, t.Installments)
	}
	if t.Installments > 1 && (t.Installment < 1 || t.Installment > t.Installments) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidInstallment, t.Installment, t.Installments)
	}
	return nil
}

// Duplicate returns a copy suitable for creating as a new record: no id,
// dated on the given day and unconfirmed.
func (t Transaction) Duplicate(today time.Time) Transaction {
	dup := t
	dup.ID = ""
	dup.Date = DateOnly(today)
	dup.Confirmed = false
	return dup
}

// SignedAmount returns the amount as it affects a balance: inflows add, everything else subtracts.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Kind == KindInflow {
		return t.Amount
	}
	return t.Amount.Neg()
}

// GenerateHash creates a stable fingerprint used to skip duplicate imports.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		t.Date.Format(DateLayout),
		t.Amount.StringFixed(2),
		t.Description,
		t.AccountID,
		t.CreditCardID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
