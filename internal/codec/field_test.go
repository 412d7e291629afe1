package codec

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
)

func TestSource_RoundTrip(t *testing.T) {
	for _, ref := range []model.SourceRef{
		{Type: model.SourceAccount, ID: "12"},
		{Type: model.SourceCard, ID: "3"},
	} {
		got, err := DecodeSource(EncodeSource(ref))
		require.NoError(t, err)
		assert.Equal(t, ref, got)
	}

	assert.Equal(t, "account-12", EncodeSource(model.SourceRef{Type: model.SourceAccount, ID: "12"}))
	assert.Equal(t, "card-3", EncodeSource(model.SourceRef{Type: model.SourceCard, ID: "3"}))
	assert.Equal(t, "", EncodeSource(model.SourceRef{}))
}

func TestDecodeSource_Invalid(t *testing.T) {
	for _, raw := range []string{"", "account-", "card-", "wallet-1", "12"} {
		_, err := DecodeSource(raw)
		assert.ErrorIs(t, err, ErrInvalidSource, raw)
		assert.ErrorIs(t, err, common.ErrValidation, raw)
	}
}

func TestFields_Decode(t *testing.T) {
	f := NewFields(NewCurrency(LocalePtBR))

	t.Run("date", func(t *testing.T) {
		d, err := f.Decode(model.FieldDate, " 2024-02-29 ")
		require.NoError(t, err)
		require.NotNil(t, d.Patch.Date)
		assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), *d.Patch.Date)

		_, err = f.Decode(model.FieldDate, "29/02/2024")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("account clears the other side", func(t *testing.T) {
		d, err := f.Decode(model.FieldAccount, "card-9")
		require.NoError(t, err)

		txn := model.Transaction{AccountID: "1"}
		got := d.Patch.Apply(txn)
		assert.Empty(t, got.AccountID)
		assert.Equal(t, "9", got.CreditCardID)
	})

	t.Run("description is trimmed and required", func(t *testing.T) {
		d, err := f.Decode(model.FieldDescription, "  Padaria  ")
		require.NoError(t, err)
		assert.Equal(t, "Padaria", *d.Patch.Description)

		_, err = f.Decode(model.FieldDescription, "   ")
		assert.ErrorIs(t, err, ErrEmptyText)
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("amount", func(t *testing.T) {
		d, err := f.Decode(model.FieldAmount, "1050")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("10.50").Equal(*d.Patch.Amount))

		_, err = f.Decode(model.FieldAmount, "abc")
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("beneficiary needs resolution", func(t *testing.T) {
		d, err := f.Decode(model.FieldBeneficiary, " Padaria do Zé ")
		require.NoError(t, err)
		assert.True(t, d.NeedsBeneficiary())
		assert.Equal(t, "Padaria do Zé", d.BeneficiaryName)
		assert.True(t, d.Patch.IsEmpty())

		patch := d.WithBeneficiary("42")
		assert.Equal(t, "42", *patch.BeneficiaryID)
	})

	t.Run("empty beneficiary clears", func(t *testing.T) {
		d, err := f.Decode(model.FieldBeneficiary, "")
		require.NoError(t, err)
		assert.False(t, d.NeedsBeneficiary())
		require.NotNil(t, d.Patch.BeneficiaryID)
		assert.Empty(t, *d.Patch.BeneficiaryID)
	})

	t.Run("kind", func(t *testing.T) {
		d, err := f.Decode(model.FieldKind, "Inflow")
		require.NoError(t, err)
		assert.Equal(t, model.KindInflow, *d.Patch.Kind)

		_, err = f.Decode(model.FieldKind, "refund")
		assert.ErrorIs(t, err, ErrInvalidKind)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := f.Decode(model.Field("notes"), "x")
		assert.ErrorIs(t, err, ErrUnknownField)
	})
}

func TestFields_Encode(t *testing.T) {
	f := NewFields(NewCurrency(LocalePtBR))
	txn := model.Transaction{
		Date:            time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		CreditCardID:    "4",
		BeneficiaryName: "Extra",
		Description:     "Compras",
		CategoryID:      "8",
		Amount:          decimal.RequireFromString("1234.5"),
		Kind:            model.KindOutflow,
	}

	assert.Equal(t, "2024-03-10", f.Encode(model.FieldDate, txn))
	assert.Equal(t, "card-4", f.Encode(model.FieldAccount, txn))
	assert.Equal(t, "Extra", f.Encode(model.FieldBeneficiary, txn))
	assert.Equal(t, "Compras", f.Encode(model.FieldDescription, txn))
	assert.Equal(t, "8", f.Encode(model.FieldCategory, txn))
	assert.Equal(t, "1.234,50", f.Encode(model.FieldAmount, txn))
	assert.Equal(t, "outflow", f.Encode(model.FieldKind, txn))
}
