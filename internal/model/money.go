package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that cannot be parsed or are not positive.
var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount in integer cents.
type Money int64

var hundred = decimal.NewFromInt(100)

var (
	plainAmount   = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)
	groupedAmount = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d*)?$`)
	commaDecimal  = regexp.MustCompile(`^\d*,\d{1,2}$`)
)

// ParseMoney parses a decimal string such as "12.34", "1,234.56" or "12,34"
// into cents, rounding half up on the third decimal place. A comma is a
// decimal separator only when no "." is present and at most two digits
// follow it; otherwise it must group thousands. Only positive amounts are
// accepted.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return 0, ErrInvalidAmount
	}

	var normalized string
	switch {
	case plainAmount.MatchString(s):
		normalized = s
	case groupedAmount.MatchString(s):
		normalized = strings.ReplaceAll(s, ",", "")
	case commaDecimal.MatchString(s):
		normalized = strings.Replace(s, ",", ".", 1)
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// FromFloat converts a float amount (as produced by CLI flags) into cents.
func FromFloat(f float64) (Money, error) {
	return FromDecimal(decimal.NewFromFloat(f))
}

// FromDecimal converts a decimal amount into cents.
func FromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
	return Money(cents.IntPart()), nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Float returns the amount in currency units for display and charting.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) String() string {
	return "$" + m.Decimal().StringFixed(2)
}
