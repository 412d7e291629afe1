// Package codec converts between raw text buffers typed by a user and
// store-ready transaction values.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/common"
)

// Codec errors.
var (
	ErrNotANumber    = errors.New("no digits in amount")
	ErrUnknownLocale = errors.New("unknown currency locale")
)

// Locale describes how amounts are grouped and separated.
type Locale struct {
	Name     string
	Decimal  rune
	Grouping rune
}

// Supported locales.
var (
	LocalePtBR = Locale{Name: "pt-BR", Decimal: ',', Grouping: '.'}
	LocaleEnUS = Locale{Name: "en-US", Decimal: '.', Grouping: ','}
)

// LookupLocale returns the locale with the given name. An empty name selects pt-BR.
func LookupLocale(name string) (Locale, error) {
	switch name {
	case "", LocalePtBR.Name:
		return LocalePtBR, nil
	case LocaleEnUS.Name:
		return LocaleEnUS, nil
	}
	return Locale{}, fmt.Errorf("%w: %s", ErrUnknownLocale, name)
}

// Currency parses and formats monetary magnitudes for one locale.
type Currency struct {
	locale Locale
}

// NewCurrency creates a currency codec for the given locale.
func NewCurrency(locale Locale) Currency {
	return Currency{locale: locale}
}

// Locale returns the codec's locale.
func (c Currency) Locale() Locale {
	return c.locale
}

// Parse turns a raw buffer into a non-negative amount.
//
// Everything except digits and the locale's decimal separator is ignored.
// With a separator the buffer reads literally as <integer>.<fraction>, the
// fraction clipped to two digits; only the last separator counts. Without one
// the digits are minor units, so "1050" is 10.50.
func (c Currency) Parse(raw string) (decimal.Decimal, error) {
	sep := strings.LastIndex(raw, string(c.locale.Decimal))
	if sep < 0 {
		digits := digitsOf(raw)
		if digits == "" {
			return decimal.Zero, common.NewValidationError("amount", raw, ErrNotANumber)
		}
		cents, err := decimal.NewFromString(digits)
		if err != nil {
			return decimal.Zero, common.NewValidationError("amount", raw, err)
		}
		return cents.Shift(-2), nil
	}

	whole := digitsOf(raw[:sep])
	frac := digitsOf(raw[sep+1:])
	if whole == "" && frac == "" {
		return decimal.Zero, common.NewValidationError("amount", raw, ErrNotANumber)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	if frac == "" {
		frac = "0"
	}

	value, err := decimal.NewFromString(whole + "." + frac)
	if err != nil {
		return decimal.Zero, common.NewValidationError("amount", raw, err)
	}
	return value, nil
}

// Format renders a magnitude with thousands grouping and exactly two
// fraction digits, without any currency symbol.
func (c Currency) Format(amount decimal.Decimal) string {
	rounded := amount.Abs().Round(2)
	_, frac, _ := strings.Cut(rounded.StringFixed(2), ".")
	whole := strings.ReplaceAll(humanize.BigComma(rounded.BigInt()), ",", string(c.locale.Grouping))
	return whole + string(c.locale.Decimal) + frac
}

// Mask re-renders a buffer on every keystroke: all digits are read as minor
// units and formatted, so typing "1", "0", "5" shows 0,01 then 0,10 then 1,05.
// A buffer without digits masks to the empty string.
func (c Currency) Mask(raw string) string {
	digits := digitsOf(raw)
	if digits == "" {
		return ""
	}
	cents, err := decimal.NewFromString(digits)
	if err != nil {
		return ""
	}
	return c.Format(cents.Shift(-2))
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
