package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are counted in minor currency units (cents). They are carried as
// zero-scale decimals so sums never lose precision. A single amount is
// bounded to MaxAmountDigits; sums of many amounts may exceed it.

// MaxAmountDigits bounds the digits of one amount, on either side of the
// decimal point.
const MaxAmountDigits = 64

// ParseAmount parses a string of minor units such as "12550" into a decimal.
// Exponent notation and fractional values are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: exponent notation in %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, err.Error())
	}

	if err := ValidateMinorUnits(d); err != nil {
		return decimal.Zero, err
	}

	return d, nil
}

// ValidateMinorUnits checks that d is a whole number of minor units with at
// most MaxAmountDigits digits. The bounds are checked on the exponent before
// any arithmetic, so a huge exponent costs nothing.
func ValidateMinorUnits(d decimal.Decimal) error {
	exp := int(d.Exponent())
	if exp > MaxAmountDigits || exp < -MaxAmountDigits {
		return fmt.Errorf("%w: more than %d digits", ErrInvalidAmount, MaxAmountDigits)
	}
	if d.NumDigits()+exp > MaxAmountDigits {
		return fmt.Errorf("%w: more than %d digits", ErrInvalidAmount, MaxAmountDigits)
	}

	if !d.IsInteger() {
		return fmt.Errorf("%w: %s is not a whole number of minor units", ErrInvalidAmount, d.String())
	}

	return nil
}

// ValidateEntryAmount checks an entry amount: strictly positive, whole minor units.
func ValidateEntryAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	return ValidateMinorUnits(amount)
}
