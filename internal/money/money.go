// Package money converts between user-facing decimal amounts and the int64
// minor units the ledger stores.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrOutOfRange is returned when an amount does not fit in int64 minor units.
var ErrOutOfRange = errors.New("amount out of range")

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// currency returns the go-money currency for code. Unknown codes get
// go-money's default (two fraction digits, code as grapheme).
func currency(code string) *gomoney.Currency {
	return gomoney.New(0, strings.ToUpper(code)).Currency()
}

// Fraction returns the number of minor-unit digits of a currency.
func Fraction(code string) int {
	return currency(code).Fraction
}

// IsKnown reports whether code is an ISO 4217 currency go-money knows.
func IsKnown(code string) bool {
	return gomoney.GetCurrency(strings.ToUpper(code)) != nil
}

// ParseAmount parses a signed decimal string such as "-1,234.50" into minor
// units of the given currency. Thousands separators are ignored. Digits past
// the currency's precision are rounded half away from zero.
func ParseAmount(s, code string) (int64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	minor, err := ToMinor(d, code)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	return minor, nil
}

// ToMinor converts a major-unit decimal to minor units. The magnitude must
// stay within math.MaxInt64, so the result can always be negated.
func ToMinor(d decimal.Decimal, code string) (int64, error) {
	minor := d.Shift(int32(Fraction(code))).Round(0)
	if minor.Abs().GreaterThan(maxMinor) {
		return 0, ErrOutOfRange
	}
	return minor.IntPart(), nil
}

// ToMajor converts minor units to a major-unit decimal.
func ToMajor(amount int64, code string) decimal.Decimal {
	return decimal.New(amount, -int32(Fraction(code)))
}

// Format renders minor units with the currency's symbol and separators,
// e.g. 500000 USD as "$5,000.00".
func Format(amount int64, code string) string {
	return gomoney.New(amount, strings.ToUpper(code)).Display()
}
