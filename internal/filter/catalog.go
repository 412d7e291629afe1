package filter

import (
	"fmt"
	"sort"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
)

// Filterable field keys.
const (
	FieldAccount     = "account"
	FieldAmount      = "amount"
	FieldBeneficiary = "beneficiary"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldType        = "type"
)

// Status option values.
const (
	StatusConfirmed = "confirmed"
	StatusPending   = "pending"
)

// CardOptionPrefix prefixes credit card identifiers in the account field's
// option values so they never collide with account identifiers.
const CardOptionPrefix = "card_"

// Option is one choice for a select field.
type Option struct {
	Value string
	Label string
}

// Field describes one filterable field of a transaction.
type Field struct {
	extract    func(model.Transaction) (Value, bool)
	Key        string
	Label      string
	Type       ValueType
	Operations []OpKey
	Options    []Option
}

// Sources are the reference collections the catalog builds options from.
type Sources struct {
	Accounts    []model.Account
	CreditCards []model.CreditCard
	Categories  []model.Category
}

// Catalog is the read-only registry of filterable fields.
type Catalog struct {
	byKey  map[string]int
	fields []Field
}

// NewCatalog builds the catalog, deriving select options from src.
func NewCatalog(src Sources) *Catalog {
	fields := []Field{
		{
			Key:        FieldAccount,
			Label:      "Account",
			Type:       TypeSelect,
			Operations: []OpKey{OpIs, OpIsNot, OpIn, OpNotIn},
			Options:    accountOptions(src),
			extract:    accountValue,
		},
		{
			Key:        FieldAmount,
			Label:      "Amount",
			Type:       TypeNumber,
			Operations: []OpKey{OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpGreaterEqual, OpLessEqual, OpBetween},
			extract: func(t model.Transaction) (Value, bool) {
				return NumberValue(t.Amount), true
			},
		},
		{
			Key:        FieldDescription,
			Label:      "Description",
			Type:       TypeText,
			Operations: []OpKey{OpContains, OpNotContains, OpEquals, OpNotEquals, OpStartsWith, OpEndsWith},
			extract: func(t model.Transaction) (Value, bool) {
				return TextValue(t.Description), true
			},
		},
		{
			Key:        FieldBeneficiary,
			Label:      "Beneficiary",
			Type:       TypeText,
			Operations: []OpKey{OpContains, OpNotContains, OpEquals, OpNotEquals, OpStartsWith, OpEndsWith},
			extract: func(t model.Transaction) (Value, bool) {
				if t.BeneficiaryName == "" {
					return Value{}, false
				}
				return TextValue(t.BeneficiaryName), true
			},
		},
		{
			Key:        FieldCategory,
			Label:      "Category",
			Type:       TypeSelect,
			Operations: []OpKey{OpIs, OpIsNot, OpIn, OpNotIn},
			Options:    categoryOptions(src.Categories),
			extract: func(t model.Transaction) (Value, bool) {
				if t.CategoryID == "" {
					return Value{}, false
				}
				return OptionValue(t.CategoryID), true
			},
		},
		{
			Key:        FieldDate,
			Label:      "Date",
			Type:       TypeDate,
			Operations: []OpKey{OpEquals, OpNotEquals, OpBefore, OpAfter, OpBetween},
			extract: func(t model.Transaction) (Value, bool) {
				if t.Date.IsZero() {
					return Value{}, false
				}
				return DateValue(t.Date), true
			},
		},
		{
			Key:        FieldStatus,
			Label:      "Status",
			Type:       TypeSelect,
			Operations: []OpKey{OpIs},
			Options: []Option{
				{Value: StatusConfirmed, Label: "Confirmed"},
				{Value: StatusPending, Label: "Pending"},
			},
			extract: func(t model.Transaction) (Value, bool) {
				if t.Confirmed {
					return OptionValue(StatusConfirmed), true
				}
				return OptionValue(StatusPending), true
			},
		},
		{
			Key:        FieldType,
			Label:      "Type",
			Type:       TypeSelect,
			Operations: []OpKey{OpIs, OpIsNot},
			Options: []Option{
				{Value: string(model.KindInflow), Label: "Inflow"},
				{Value: string(model.KindOutflow), Label: "Outflow"},
				{Value: string(model.KindTransfer), Label: "Transfer"},
			},
			extract: func(t model.Transaction) (Value, bool) {
				if t.Kind == "" {
					return Value{}, false
				}
				return OptionValue(string(t.Kind)), true
			},
		},
	}

	byKey := make(map[string]int, len(fields))
	for i, f := range fields {
		byKey[f.Key] = i
	}
	return &Catalog{fields: fields, byKey: byKey}
}

func accountValue(t model.Transaction) (Value, bool) {
	switch {
	case t.AccountID != "":
		return OptionValue(t.AccountID), true
	case t.CreditCardID != "":
		return OptionValue(CardOptionPrefix + t.CreditCardID), true
	}
	return Value{}, false
}

func accountOptions(src Sources) []Option {
	options := make([]Option, 0, len(src.Accounts)+len(src.CreditCards))
	for _, a := range src.Accounts {
		options = append(options, Option{Value: a.ID, Label: a.Name})
	}
	for _, c := range src.CreditCards {
		options = append(options, Option{Value: CardOptionPrefix + c.ID, Label: "💳 " + c.Name})
	}
	return options
}

func categoryOptions(categories []model.Category) []Option {
	options := make([]Option, 0, len(categories))
	for _, c := range categories {
		options = append(options, Option{Value: c.ID, Label: c.Name})
	}
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Label < options[j].Label
	})
	return options
}

// Fields returns every field in display order.
func (c *Catalog) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Field returns the field registered under key.
func (c *Catalog) Field(key string) (Field, error) {
	i, ok := c.byKey[key]
	if !ok {
		return Field{}, common.NewConfigurationError(
			"filter field", fmt.Errorf("%w: %q", ErrUnknownField, key))
	}
	return c.fields[i], nil
}

// Operations returns the operations legal for the field registered under key.
func (c *Catalog) Operations(key string) ([]Operation, error) {
	f, err := c.Field(key)
	if err != nil {
		return nil, err
	}
	ops := make([]Operation, 0, len(f.Operations))
	for _, k := range f.Operations {
		if op, ok := operations[k]; ok && op.Supports(f.Type) {
			ops = append(ops, op)
		}
	}
	return ops, nil
}

// Options returns the choices for a select field; other fields have none.
func (c *Catalog) Options(key string) ([]Option, error) {
	f, err := c.Field(key)
	if err != nil {
		return nil, err
	}
	out := make([]Option, len(f.Options))
	copy(out, f.Options)
	return out, nil
}

// OptionLabel returns the display label for an option value, falling back to the value.
func (f Field) OptionLabel(value string) string {
	for _, o := range f.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// Allows reports whether op is legal for the field.
func (f Field) Allows(op OpKey) bool {
	for _, k := range f.Operations {
		if k == op {
			return true
		}
	}
	return false
}

// SourceLabel returns the display name of the account or card backing t.
func (c *Catalog) SourceLabel(t model.Transaction) string {
	v, ok := accountValue(t)
	if !ok {
		return ""
	}
	f, err := c.Field(FieldAccount)
	if err != nil {
		return v.String()
	}
	return f.OptionLabel(v.String())
}
