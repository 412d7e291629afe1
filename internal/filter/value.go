package filter

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// ValueKind tags which arm of a Value is populated.
type ValueKind int

// Value kinds.
const (
	KindNone ValueKind = iota
	KindText
	KindNumber
	KindDate
	KindOption
	KindOptions
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindOption:
		return "option"
	case KindOptions:
		return "option list"
	}
	return "none"
}

// Value is a tagged union of the values a filter or a record field can hold.
type Value struct {
	date    time.Time
	number  decimal.Decimal
	text    string
	options []string
	kind    ValueKind
}

// TextValue wraps free text.
func TextValue(s string) Value {
	return Value{kind: KindText, text: s}
}

// NumberValue wraps a number.
func NumberValue(d decimal.Decimal) Value {
	return Value{kind: KindNumber, number: d}
}

// DateValue wraps a calendar date.
func DateValue(t time.Time) Value {
	return Value{kind: KindDate, date: model.DateOnly(t)}
}

// OptionValue wraps a single option identifier.
func OptionValue(s string) Value {
	return Value{kind: KindOption, text: s}
}

// OptionsValue wraps a list of option identifiers.
func OptionsValue(options []string) Value {
	cp := make([]string, len(options))
	copy(cp, options)
	return Value{kind: KindOptions, options: cp}
}

// Kind returns which arm is populated.
func (v Value) Kind() ValueKind { return v.kind }

// Number returns the numeric arm.
func (v Value) Number() decimal.Decimal { return v.number }

// Date returns the date arm.
func (v Value) Date() time.Time { return v.date }

// Options returns a copy of the option-list arm.
func (v Value) Options() []string {
	cp := make([]string, len(v.options))
	copy(cp, v.options)
	return cp
}

// String renders the value as text, the form text operators compare against.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return v.number.String()
	case KindDate:
		return v.date.Format(model.DateLayout)
	case KindOptions:
		return strings.Join(v.options, ",")
	}
	return v.text
}

// expectedKind is the value arm a filter needs for a field type and operation.
func expectedKind(t ValueType, op OpKey) ValueKind {
	switch t {
	case TypeText:
		return KindText
	case TypeNumber:
		return KindNumber
	case TypeDate:
		return KindDate
	case TypeSelect, TypeMultiSelect:
		if op.TakesList() {
			return KindOptions
		}
		return KindOption
	}
	return KindNone
}
