package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field names an editable transaction field.
type Field string

// Editable fields.
const (
	FieldDate        Field = "date"
	FieldAccount     Field = "account"
	FieldBeneficiary Field = "beneficiary"
	FieldDescription Field = "description"
	FieldCategory    Field = "category"
	FieldAmount      Field = "amount"
	FieldKind        Field = "kind"
)

// EditableFields lists every field that inline and bulk edits accept.
var EditableFields = []Field{
	FieldDate, FieldAccount, FieldBeneficiary, FieldDescription, FieldCategory, FieldAmount, FieldKind,
}

// Valid reports whether f is an editable field.
func (f Field) Valid() bool {
	for _, known := range EditableFields {
		if f == known {
			return true
		}
	}
	return false
}

// TransactionPatch is a partial update. Nil fields are left untouched.
// Source replaces the account/card pair as a whole. An empty CategoryID or
// BeneficiaryID clears the reference.
type TransactionPatch struct {
	Date          *time.Time
	Amount        *decimal.Decimal
	Source        *SourceRef
	BeneficiaryID *string
	Description   *string
	CategoryID    *string
	Kind          *Kind
	Confirmed     *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Date == nil && p.Amount == nil && p.Source == nil && p.BeneficiaryID == nil &&
		p.Description == nil && p.CategoryID == nil && p.Kind == nil && p.Confirmed == nil
}

// Fields returns the names of the fields the patch touches.
func (p TransactionPatch) Fields() []Field {
	var fields []Field
	if p.Date != nil {
		fields = append(fields, FieldDate)
	}
	if p.Source != nil {
		fields = append(fields, FieldAccount)
	}
	if p.BeneficiaryID != nil {
		fields = append(fields, FieldBeneficiary)
	}
	if p.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if p.CategoryID != nil {
		fields = append(fields, FieldCategory)
	}
	if p.Amount != nil {
		fields = append(fields, FieldAmount)
	}
	if p.Kind != nil {
		fields = append(fields, FieldKind)
	}
	return fields
}

// Apply returns t with the patch applied. Display names for changed
// references are cleared; the store fills them in on its response.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Date != nil {
		t.Date = DateOnly(*p.Date)
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Source != nil {
		t.AccountID, t.CreditCardID = "", ""
		switch p.Source.Type {
		case SourceAccount:
			t.AccountID = p.Source.ID
		case SourceCard:
			t.CreditCardID = p.Source.ID
		}
	}
	if p.BeneficiaryID != nil && *p.BeneficiaryID != t.BeneficiaryID {
		t.BeneficiaryID = *p.BeneficiaryID
		t.BeneficiaryName = ""
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.CategoryID != nil && *p.CategoryID != t.CategoryID {
		t.CategoryID = *p.CategoryID
		t.CategoryName = ""
	}
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	if p.Confirmed != nil {
		t.Confirmed = *p.Confirmed
	}
	return t
}
