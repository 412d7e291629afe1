package filter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
)

func TestCatalog_Operations(t *testing.T) {
	c := testCatalog()

	ops, err := c.Operations(FieldStatus)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, OpIs, ops[0].Key)

	ops, err = c.Operations(FieldAmount)
	require.NoError(t, err)
	keys := make([]OpKey, len(ops))
	for i, op := range ops {
		keys[i] = op.Key
		assert.True(t, op.Supports(TypeNumber))
	}
	assert.Contains(t, keys, OpBetween)
	assert.NotContains(t, keys, OpContains)

	_, err = c.Operations("notes")
	assert.ErrorIs(t, err, common.ErrConfiguration)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestCatalog_Options(t *testing.T) {
	c := testCatalog()

	options, err := c.Options(FieldAccount)
	require.NoError(t, err)
	assert.Equal(t, []Option{
		{Value: "1", Label: "Nubank"},
		{Value: "2", Label: "Itaú"},
		{Value: "card_1", Label: "💳 Visa"},
	}, options)

	options, err = c.Options(FieldCategory)
	require.NoError(t, err)
	assert.Equal(t, "Aluguel", options[0].Label)

	options, err = c.Options(FieldAmount)
	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestCatalog_ParseValue(t *testing.T) {
	c := testCatalog()

	v, err := c.ParseValue(FieldAmount, OpGreaterThan, "10,5")
	require.NoError(t, err)
	assert.Equal(t, KindNumber, v.Kind())
	assert.True(t, decimal.RequireFromString("10.5").Equal(v.Number()))

	v, err = c.ParseValue(FieldDate, OpBefore, "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), v.Date())

	v, err = c.ParseValue(FieldCategory, OpIn, "10, 11,")
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "11"}, v.Options())

	v, err = c.ParseValue(FieldCategory, OpIs, " 10 ")
	require.NoError(t, err)
	assert.Equal(t, KindOption, v.Kind())
	assert.Equal(t, "10", v.String())

	_, err = c.ParseValue(FieldAmount, OpEquals, "ten")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = c.ParseValue(FieldDate, OpAfter, "31/01/2024")
	assert.ErrorIs(t, err, ErrInvalidFilterValue)
}

func TestViewAndBalance(t *testing.T) {
	in := txn("in", "salary", "1000")
	in.Kind = model.KindInflow
	in.Confirmed = true

	out := txn("out", "rent", "400")
	out.Confirmed = true

	bill := txn("bill", "power", "100")
	bill.AccountID = ""
	bill.CreditCardID = "1"

	receivable := txn("rec", "invoice", "300")
	receivable.Kind = model.KindInflow

	records := []model.Transaction{in, out, bill, receivable}

	tests := []struct {
		view View
		want []string
	}{
		{View{Tab: TabAll}, []string{"in", "out", "bill", "rec"}},
		{View{Tab: TabInflows}, []string{"in"}},
		{View{Tab: TabOutflows}, []string{"out"}},
		{View{Tab: TabReceivables}, []string{"rec"}},
		{View{Tab: TabPayables}, []string{"bill"}},
		{View{Tab: TabAll, Scope: Scope{Kind: ScopeCards}}, []string{"bill"}},
		{View{Tab: TabAll, Scope: Scope{Kind: ScopeBanks}}, []string{"in", "out", "rec"}},
		{View{Tab: TabAll, Scope: Scope{Kind: ScopeSource, Source: model.SourceRef{Type: model.SourceCard, ID: "1"}}}, []string{"bill"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.view.Tab)+"/"+string(tt.view.Scope.Kind), func(t *testing.T) {
			var got []string
			for _, r := range records {
				if tt.view.Matches(r) {
					got = append(got, r.ID)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, decimal.NewFromInt(800).Equal(Balance(records)), Balance(records).String())

	tab, err := ParseTab("")
	require.NoError(t, err)
	assert.Equal(t, TabAll, tab)
	_, err = ParseTab("nope")
	assert.Error(t, err)
}

func TestCatalog_SourceLabel(t *testing.T) {
	c := testCatalog()

	assert.Equal(t, "Itaú", c.SourceLabel(model.Transaction{AccountID: "2"}))
	assert.Equal(t, "💳 Visa", c.SourceLabel(model.Transaction{CreditCardID: "1"}))
	assert.Equal(t, "9", c.SourceLabel(model.Transaction{AccountID: "9"}))
	assert.Empty(t, c.SourceLabel(model.Transaction{}))
}
