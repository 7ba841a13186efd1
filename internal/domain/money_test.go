package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input     string
		want      string
		expectErr bool
	}{
		{input: "12550", want: "12550"},
		{input: " 999999999999999999 ", want: "999999999999999999"},
		{input: "123456789012345678901234567890", want: "123456789012345678901234567890"},
		{input: "10.00", want: "10"},
		{input: "10.5", expectErr: true},
		{input: "", expectErr: true},
		{input: "abc", expectErr: true},
		{input: "1e3", expectErr: true},
		{input: "1E2000000000", expectErr: true},
		{input: strings.Repeat("9", MaxAmountDigits), want: strings.Repeat("9", MaxAmountDigits)},
		{input: strings.Repeat("9", MaxAmountDigits+1), expectErr: true},
		{input: "0." + strings.Repeat("0", MaxAmountDigits), expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.expectErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestValidateEntryAmount(t *testing.T) {
	if err := ValidateEntryAmount(decimal.NewFromInt(1)); err != nil {
		t.Fatalf("expected 1 to be valid, got %v", err)
	}

	for _, bad := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5), decimal.RequireFromString("0.5")} {
		if err := ValidateEntryAmount(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount for %s, got %v", bad, err)
		}
	}
}

func TestValidateMinorUnitsHugeExponent(t *testing.T) {
	start := time.Now()

	for _, d := range []decimal.Decimal{decimal.New(1, 2000000000), decimal.New(1, -2000000000)} {
		if err := ValidateMinorUnits(d); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount for exponent %d, got %v", d.Exponent(), err)
		}
	}

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("rejecting huge exponents took %s", elapsed)
	}
}
