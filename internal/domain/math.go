package domain

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// DisplayPrecision is the number of fractional digits shown for crypto amounts.
const DisplayPrecision = 6

// DividePrecision is the number of fractional digits kept by intermediate divisions.
const DividePrecision = 18

// ErrInvalidAmount indicates a native amount that is not a decimal-integer string.
var ErrInvalidAmount = errors.New("invalid native amount")

var integerPattern = regexp.MustCompile(`^-?[0-9]+$`)

// ParseNativeAmount parses a signed decimal-integer string in a currency's smallest unit.
func ParseNativeAmount(value string) (decimal.Decimal, error) {
	if !integerPattern.MatchString(value) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return d, nil
}

// ParseBalance parses a native amount that must not be negative.
func ParseBalance(value string) (decimal.Decimal, error) {
	d, err := ParseNativeAmount(value)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative balance %q", ErrInvalidAmount, value)
	}
	return d, nil
}

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SafeSum adds two decimals.
func SafeSum(a, b decimal.Decimal) decimal.Decimal {
	return a.Add(b)
}

// TruncateString truncates d toward zero to the given number of fractional digits
// and strips trailing zeros. A result that truncates to zero is rendered as "0".
func TruncateString(d decimal.Decimal, places int32) string {
	return d.Truncate(places).String()
}
