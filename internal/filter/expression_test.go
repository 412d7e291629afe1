package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/common"
)

func TestParseExpression(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name      string
		expr      string
		wantField string
		wantOp    OpKey
		wantValue string
		wantErr   error
	}{
		{
			name:      "text keeps inner colons",
			expr:      "description:contains:10:30",
			wantField: FieldDescription,
			wantOp:    OpContains,
			wantValue: "10:30",
		},
		{
			name:      "option list",
			expr:      "category:in:10,11",
			wantField: FieldCategory,
			wantOp:    OpIn,
			wantValue: "10,11",
		},
		{
			name:      "status",
			expr:      " status : is : pending",
			wantField: FieldStatus,
			wantOp:    OpIs,
			wantValue: StatusPending,
		},
		{
			name:    "missing value",
			expr:    "amount:greater_than",
			wantErr: ErrMalformedExpression,
		},
		{
			name:    "empty operation",
			expr:    "amount::10",
			wantErr: ErrMalformedExpression,
		},
		{
			name:    "unknown field",
			expr:    "notes:contains:x",
			wantErr: ErrUnknownField,
		},
		{
			name:    "operation not offered by field",
			expr:    "status:is_not:pending",
			wantErr: ErrOperationNotAllowed,
		},
		{
			name:    "between is rejected",
			expr:    "amount:between:10",
			wantErr: ErrOperationNotSupported,
		},
		{
			name:    "bad number",
			expr:    "amount:greater_than:lots",
			wantErr: ErrInvalidFilterValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseExpression(c, tt.expr)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantField, f.FieldKey())
			assert.Equal(t, tt.wantOp, f.Operation())
			assert.Equal(t, tt.wantValue, f.Value().String())
		})
	}
}
