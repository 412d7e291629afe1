package codec

import (
	"errors"
	"strings"
	"time"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
)

// Field decoding errors.
var (
	ErrEmptyText    = errors.New("text cannot be empty")
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidDate  = errors.New("expected a YYYY-MM-DD date")
	ErrInvalidKind  = errors.New("expected inflow, outflow or transfer")
)

// Decoded is the result of decoding a raw buffer for one field.
type Decoded struct {
	// BeneficiaryName is set when the patch still needs a beneficiary id
	// resolved by name through the store.
	BeneficiaryName string
	Patch           model.TransactionPatch
}

// NeedsBeneficiary reports whether a beneficiary must be resolved before the patch is complete.
func (d Decoded) NeedsBeneficiary() bool {
	return d.BeneficiaryName != ""
}

// WithBeneficiary completes the patch with a resolved beneficiary id.
func (d Decoded) WithBeneficiary(id string) model.TransactionPatch {
	patch := d.Patch
	patch.BeneficiaryID = &id
	return patch
}

// Fields decodes and encodes every editable field.
type Fields struct {
	currency Currency
}

// NewFields creates a field codec using the given currency codec.
func NewFields(currency Currency) *Fields {
	return &Fields{currency: currency}
}

// Currency returns the currency codec used for amounts.
func (f *Fields) Currency() Currency {
	return f.currency
}

// RequiresText reports whether an empty buffer is meaningless for field.
func RequiresText(field model.Field) bool {
	return field == model.FieldDescription
}

// Decode turns a raw buffer into a patch touching only field.
func (f *Fields) Decode(field model.Field, raw string) (Decoded, error) {
	trimmed := strings.TrimSpace(raw)

	switch field {
	case model.FieldDate:
		date, err := time.Parse(model.DateLayout, trimmed)
		if err != nil {
			return Decoded{}, common.NewValidationError(string(field), raw, ErrInvalidDate)
		}
		return Decoded{Patch: model.TransactionPatch{Date: &date}}, nil

	case model.FieldAccount:
		ref, err := DecodeSource(trimmed)
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Patch: model.TransactionPatch{Source: &ref}}, nil

	case model.FieldBeneficiary:
		if trimmed == "" {
			cleared := ""
			return Decoded{Patch: model.TransactionPatch{BeneficiaryID: &cleared}}, nil
		}
		return Decoded{BeneficiaryName: trimmed}, nil

	case model.FieldDescription:
		if trimmed == "" {
			return Decoded{}, common.NewValidationError(string(field), raw, ErrEmptyText)
		}
		return Decoded{Patch: model.TransactionPatch{Description: &trimmed}}, nil

	case model.FieldCategory:
		return Decoded{Patch: model.TransactionPatch{CategoryID: &trimmed}}, nil

	case model.FieldAmount:
		amount, err := f.currency.Parse(raw)
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Patch: model.TransactionPatch{Amount: &amount}}, nil

	case model.FieldKind:
		kind := model.Kind(strings.ToLower(trimmed))
		if !kind.Valid() {
			return Decoded{}, common.NewValidationError(string(field), raw, ErrInvalidKind)
		}
		return Decoded{Patch: model.TransactionPatch{Kind: &kind}}, nil
	}

	return Decoded{}, common.NewValidationError("field", string(field), ErrUnknownField)
}

// Encode renders the current value of field as an edit buffer seed.
func (f *Fields) Encode(field model.Field, txn model.Transaction) string {
	switch field {
	case model.FieldDate:
		if txn.Date.IsZero() {
			return ""
		}
		return txn.Date.Format(model.DateLayout)
	case model.FieldAccount:
		return EncodeSource(txn.Source())
	case model.FieldBeneficiary:
		return txn.BeneficiaryName
	case model.FieldDescription:
		return txn.Description
	case model.FieldCategory:
		return txn.CategoryID
	case model.FieldAmount:
		return f.currency.Format(txn.Amount)
	case model.FieldKind:
		return string(txn.Kind)
	}
	return ""
}
