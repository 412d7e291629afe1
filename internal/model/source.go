package model

// SourceType discriminates between the two kinds of money source a transaction can use.
type SourceType string

// Source types.
const (
	SourceAccount SourceType = "account"
	SourceCard    SourceType = "card"
)

// SourceRef identifies exactly one account or credit card.
type SourceRef struct {
	Type SourceType
	ID   string
}

// IsZero reports whether the reference points at nothing.
func (s SourceRef) IsZero() bool {
	return s.ID == ""
}

// Account is a bank account, wallet or savings account.
type Account struct {
	ID   string
	Name string
	Type string
	Bank string
}

// CreditCard is a card whose charges settle through an invoice.
type CreditCard struct {
	ID    string
	Name  string
	Brand string
}

// Category classifies a transaction.
type Category struct {
	ID   string
	Name string
}

// Beneficiary is the counterparty of a transaction.
type Beneficiary struct {
	ID   string
	Name string
}
