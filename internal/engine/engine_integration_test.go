package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/bulk"
	"github.com/Veraticus/ledgerflow/internal/filter"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/testutil"
)

func TestEngine_SQLiteRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.DefaultSeed())
	ctx := context.Background()

	base := model.Transaction{
		Date:         time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		AccountID:    "acc1",
		Kind:         model.KindOutflow,
		Installments: 1,
	}
	market := base
	market.Description = "Supermercado Extra"
	market.Amount = decimal.NewFromInt(180)
	db.MustCreate(market)

	charge := base
	charge.AccountID = ""
	charge.CreditCardID = "card1"
	charge.Description = "Streaming"
	charge.Amount = decimal.NewFromInt(40)
	stream := db.MustCreate(charge)

	notifier := NewMockNotifier()
	e := New(db.Storage, notifier)
	require.NoError(t, e.Load(ctx))

	// Card charges are offered under the prefixed account option.
	f, err := filter.NewActiveFilter(e.Catalog(), filter.FieldAccount, filter.OpIs, filter.OptionValue("card_card1"))
	require.NoError(t, err)
	e.SetActiveFilters([]filter.ActiveFilter{f})
	assert.Equal(t, []string{stream.ID}, e.VisibleIDs())

	// Beneficiary edits create the beneficiary and link it.
	e.SetActiveFilters(nil)
	_, err = e.StartEdit(stream.ID, model.FieldBeneficiary)
	require.NoError(t, err)
	_, err = e.UpdateEditBuffer("Netflix")
	require.NoError(t, err)
	require.NoError(t, e.CommitEdit(ctx, stream.ID))

	r, _ := e.Record(stream.ID)
	assert.Equal(t, "Netflix", r.BeneficiaryName)

	// Bulk confirm settles the card charge and flips the bank record.
	e.SelectAll()
	_, err = e.RunBulk(ctx, bulk.Request{Op: bulk.OpConfirm}, nil)
	require.NoError(t, err)
	for _, rec := range e.Records() {
		assert.True(t, rec.Confirmed, rec.Description)
	}

	// Reloading sees exactly what the engine holds.
	local := e.Records()
	require.NoError(t, e.Load(ctx))
	assert.ElementsMatch(t, local, e.Records())
	assert.Empty(t, notifier.Notifications())
}
