package filter

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// Matches reports whether t satisfies the free-text search and every filter.
// A blank search matches everything; otherwise the term is matched as typed,
// spaces included. An empty filter list matches everything.
func Matches(t model.Transaction, filters []ActiveFilter, search string) bool {
	if strings.TrimSpace(search) != "" && !containsFold(t.Description, search) {
		return false
	}
	for _, f := range filters {
		if !f.Matches(t) {
			return false
		}
	}
	return true
}

// Apply returns the records that match, preserving order.
func Apply(records []model.Transaction, filters []ActiveFilter, search string) []model.Transaction {
	out := make([]model.Transaction, 0, len(records))
	for _, r := range records {
		if Matches(r, filters, search) {
			out = append(out, r)
		}
	}
	return out
}

// Matches evaluates a single filter. A record without the field matches only
// negated operations.
func (f ActiveFilter) Matches(t model.Transaction) bool {
	if f.field.extract == nil {
		return false
	}
	got, ok := f.field.extract(t)
	if !ok {
		return f.op.Negated()
	}

	switch f.op {
	case OpIs, OpEquals:
		return valuesEqual(got, f.value)
	case OpIsNot, OpNotEquals:
		return !valuesEqual(got, f.value)
	case OpIn:
		return isMember(got, f.value)
	case OpNotIn:
		return !isMember(got, f.value)
	case OpContains:
		return containsFold(got.String(), f.value.String())
	case OpNotContains:
		return !containsFold(got.String(), f.value.String())
	case OpStartsWith:
		return strings.HasPrefix(strings.ToLower(got.String()), strings.ToLower(f.value.String()))
	case OpEndsWith:
		return strings.HasSuffix(strings.ToLower(got.String()), strings.ToLower(f.value.String()))
	case OpGreaterThan, OpLessThan, OpGreaterEqual, OpLessEqual:
		return compareNumbers(f.op, got, f.value)
	case OpBefore:
		return got.Kind() == KindDate && got.date.Before(f.value.date)
	case OpAfter:
		return got.Kind() == KindDate && got.date.After(f.value.date)
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// valuesEqual compares dates by calendar day, numbers exactly and anything
// else numerically when both sides parse as numbers, so "007" equals "7".
func valuesEqual(a, b Value) bool {
	switch {
	case a.Kind() == KindDate && b.Kind() == KindDate:
		return a.date.Equal(b.date)
	case a.Kind() == KindNumber && b.Kind() == KindNumber:
		return a.number.Equal(b.number)
	}
	return looseEqual(a.String(), b.String())
}

func looseEqual(a, b string) bool {
	if a == b {
		return true
	}
	af, errA := cast.ToFloat64E(a)
	bf, errB := cast.ToFloat64E(b)
	if errA == nil && errB == nil {
		return af == bf
	}
	return strings.EqualFold(a, b)
}

func isMember(got, list Value) bool {
	needle := got.String()
	for _, candidate := range list.options {
		if candidate == needle {
			return true
		}
	}
	return false
}

func compareNumbers(op OpKey, a, b Value) bool {
	x, ok := toDecimal(a)
	if !ok {
		return false
	}
	y, ok := toDecimal(b)
	if !ok {
		return false
	}
	switch op {
	case OpGreaterThan:
		return x.GreaterThan(y)
	case OpLessThan:
		return x.LessThan(y)
	case OpGreaterEqual:
		return x.GreaterThanOrEqual(y)
	case OpLessEqual:
		return x.LessThanOrEqual(y)
	}
	return false
}

func toDecimal(v Value) (decimal.Decimal, bool) {
	if v.Kind() == KindNumber {
		return v.number, true
	}
	f, err := cast.ToFloat64E(v.String())
	if err != nil {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}
