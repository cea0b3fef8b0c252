package balance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "circle/internal/errors"
	"circle/internal/money"
)

// Converter converts minor-unit amounts between currencies.
type Converter interface {
	Convert(amount int64, from, to string) (int64, error)
}

// StaticRates converts with fixed rates: one unit of a currency is worth
// Rates[currency] units of Base.
type StaticRates struct {
	Base  string
	Rates map[string]decimal.Decimal
}

// ParseRates reads rates written as "EUR=1.08,GBP=1.27" against base.
func ParseRates(base, spec string) (*StaticRates, error) {
	r := &StaticRates{Base: strings.ToUpper(base), Rates: make(map[string]decimal.Decimal)}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid exchange rate %q", pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("invalid exchange rate %q", pair)
		}
		r.Rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return r, nil
}

func (r *StaticRates) rate(code string) (decimal.Decimal, error) {
	code = strings.ToUpper(code)
	if code == r.Base {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := r.Rates[code]
	if !ok {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("No exchange rate for %s", code))
	}
	return rate, nil
}

// Convert implements Converter.
func (r *StaticRates) Convert(amount int64, from, to string) (int64, error) {
	if strings.EqualFold(from, to) {
		return amount, nil
	}
	fromRate, err := r.rate(from)
	if err != nil {
		return 0, err
	}
	toRate, err := r.rate(to)
	if err != nil {
		return 0, err
	}
	major := money.ToMajor(amount, from).Mul(fromRate).Div(toRate)
	minor, err := money.ToMinor(major, to)
	if err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("Converted %s amount is out of range", from))
	}
	return minor, nil
}

// Summary is the all-accounts balance in one currency.
type Summary struct {
	Currency  string `json:"currency"`
	Cleared   int64  `json:"cleared"`
	Available int64  `json:"available"`
	Accounts  int    `json:"accounts"`
}

// Label renders the summary like an account balance label.
func (s Summary) Label() string {
	return label(s.Cleared, s.Available, s.Currency)
}

// Combine adds up balances after converting each into base.
func Combine(balances []Balance, base string, conv Converter) (Summary, error) {
	s := Summary{Currency: strings.ToUpper(base)}
	for _, b := range balances {
		cleared, err := conv.Convert(b.Cleared, b.Currency, s.Currency)
		if err != nil {
			return Summary{}, err
		}
		available, err := conv.Convert(b.Available, b.Currency, s.Currency)
		if err != nil {
			return Summary{}, err
		}
		s.Cleared += cleared
		s.Available += available
		s.Accounts++
	}
	return s, nil
}
