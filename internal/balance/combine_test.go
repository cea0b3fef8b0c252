package balance

import (
	"math"
	"testing"

	apperrors "circle/internal/errors"
)

func TestParseRates(t *testing.T) {
	r, err := ParseRates("usd", "eur=1.10, GBP=1.25,")
	if err != nil {
		t.Fatalf("ParseRates: %v", err)
	}
	if r.Base != "USD" || len(r.Rates) != 2 {
		t.Fatalf("unexpected rates %+v", r)
	}

	for _, bad := range []string{"EUR", "EUR=abc", "EUR=-1"} {
		if _, err := ParseRates("USD", bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestStaticRates_Convert(t *testing.T) {
	r, err := ParseRates("USD", "EUR=1.10,JPY=0.0067")
	if err != nil {
		t.Fatalf("ParseRates: %v", err)
	}

	tests := []struct {
		name     string
		amount   int64
		from, to string
		want     int64
	}{
		{"same currency", 1234, "USD", "USD", 1234},
		{"into base", 10000, "EUR", "USD", 11000},
		{"out of base", 11000, "USD", "EUR", 10000},
		{"zero fraction source", 10000, "JPY", "USD", 6700},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Convert(tt.amount, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if got != tt.want {
				t.Errorf("Convert(%d %s→%s) = %d, want %d", tt.amount, tt.from, tt.to, got, tt.want)
			}
		})
	}

	if _, err := r.Convert(math.MaxInt64, "USD", "JPY"); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("expected validation error for an overflowing conversion, got %v", err)
	}
	if _, err := r.Convert(100, "CHF", "USD"); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("expected validation error for unknown rate, got %v", err)
	}
}

func TestCombine(t *testing.T) {
	r, _ := ParseRates("USD", "EUR=2")
	balances := []Balance{
		{Currency: "USD", Cleared: 1000, Available: 900},
		{Currency: "EUR", Cleared: 500, Available: 400},
	}

	s, err := Combine(balances, "USD", r)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if s.Cleared != 2000 || s.Available != 1700 || s.Accounts != 2 {
		t.Errorf("unexpected summary %+v", s)
	}
	if got := s.Label(); got != "Cleared: $20.00; Pending: $17.00" {
		t.Errorf("Label = %q", got)
	}
}
