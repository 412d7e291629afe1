package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
)

// Filter construction errors.
var (
	ErrUnknownField           = errors.New("unknown filter field")
	ErrOperationNotAllowed    = errors.New("operation not allowed for field")
	ErrOperationNotSupported  = errors.New("operation not supported")
	ErrValueMismatch          = errors.New("value does not match field type")
	ErrInvalidFilterValue     = errors.New("invalid filter value")
	ErrEmptyFilterOptionsList = errors.New("option list cannot be empty")
)

// ActiveFilter is one user-applied condition. It is immutable once built.
type ActiveFilter struct {
	value Value
	field Field
	id    string
	label string
	op    OpKey
}

// NewActiveFilter validates a field/operation/value triple against the catalog.
// Operations the evaluator cannot honor, such as between, are rejected here
// so they never silently match nothing.
func NewActiveFilter(c *Catalog, fieldKey string, op OpKey, value Value) (ActiveFilter, error) {
	f, err := c.Field(fieldKey)
	if err != nil {
		return ActiveFilter{}, common.NewValidationError("filter field", fieldKey, ErrUnknownField)
	}
	if !f.Allows(op) {
		return ActiveFilter{}, common.NewValidationError("filter operation", string(op),
			fmt.Errorf("%w: %s", ErrOperationNotAllowed, f.Key))
	}
	if op == OpBetween {
		return ActiveFilter{}, common.NewValidationError("filter operation", string(op), ErrOperationNotSupported)
	}
	if want := expectedKind(f.Type, op); value.Kind() != want {
		return ActiveFilter{}, common.NewValidationError("filter value", value.String(),
			fmt.Errorf("%w: %s wants %s, got %s", ErrValueMismatch, f.Key, want, value.Kind()))
	}
	if value.Kind() == KindOptions && len(value.options) == 0 {
		return ActiveFilter{}, common.NewValidationError("filter value", "", ErrEmptyFilterOptionsList)
	}

	af := ActiveFilter{
		id:    uuid.NewString(),
		field: f,
		op:    op,
		value: value,
	}
	af.label = af.describe()
	return af, nil
}

// ID is unique among the active filters of a session.
func (f ActiveFilter) ID() string { return f.id }

// FieldKey returns the key of the filtered field.
func (f ActiveFilter) FieldKey() string { return f.field.Key }

// Operation returns the operation key.
func (f ActiveFilter) Operation() OpKey { return f.op }

// Value returns the comparison value.
func (f ActiveFilter) Value() Value { return f.value }

// Label is the human-readable description shown on the filter chip.
func (f ActiveFilter) Label() string { return f.label }

func (f ActiveFilter) describe() string {
	opLabel := string(f.op)
	if op, ok := operations[f.op]; ok {
		opLabel = op.Label
	}

	var shown string
	switch f.value.Kind() {
	case KindOption:
		shown = f.field.OptionLabel(f.value.text)
	case KindOptions:
		labels := make([]string, len(f.value.options))
		for i, v := range f.value.options {
			labels[i] = f.field.OptionLabel(v)
		}
		shown = strings.Join(labels, ", ")
	case KindText:
		shown = fmt.Sprintf("%q", f.value.text)
	default:
		shown = f.value.String()
	}
	return fmt.Sprintf("%s %s %s", f.field.Label, opLabel, shown)
}

// ParseValue turns raw user input into a value of the kind the field and
// operation expect. Select lists are comma separated.
func (c *Catalog) ParseValue(fieldKey string, op OpKey, raw string) (Value, error) {
	f, err := c.Field(fieldKey)
	if err != nil {
		return Value{}, common.NewValidationError("filter field", fieldKey, ErrUnknownField)
	}
	trimmed := strings.TrimSpace(raw)

	switch expectedKind(f.Type, op) {
	case KindText:
		return TextValue(raw), nil
	case KindNumber:
		d, err := decimal.NewFromString(strings.ReplaceAll(trimmed, ",", "."))
		if err != nil {
			return Value{}, common.NewValidationError(f.Key, raw, ErrInvalidFilterValue)
		}
		return NumberValue(d), nil
	case KindDate:
		t, err := time.Parse(model.DateLayout, trimmed)
		if err != nil {
			return Value{}, common.NewValidationError(f.Key, raw, ErrInvalidFilterValue)
		}
		return DateValue(t), nil
	case KindOption:
		if trimmed == "" {
			return Value{}, common.NewValidationError(f.Key, raw, ErrInvalidFilterValue)
		}
		return OptionValue(trimmed), nil
	case KindOptions:
		var options []string
		for _, part := range strings.Split(trimmed, ",") {
			if p := strings.TrimSpace(part); p != "" {
				options = append(options, p)
			}
		}
		return OptionsValue(options), nil
	}
	return Value{}, common.NewValidationError(f.Key, raw, ErrInvalidFilterValue)
}
