// Package display turns native amounts into the strings a wallet UI renders.
// All arithmetic is done on arbitrary-precision decimals; floats only appear
// where exchange rates enter from the rate table.
package display

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletview/internal/domain"
)

// ConvertNativeToDisplay divides a non-negative native amount by the denomination
// multiplier, truncating to six fractional digits. A result that truncates to
// zero is returned as "0".
func ConvertNativeToDisplay(nativeAmount string, denom domain.Denomination) (string, error) {
	native, err := domain.ParseBalance(nativeAmount)
	if err != nil {
		return "", err
	}
	m, err := denom.MultiplierDecimal()
	if err != nil {
		return "", err
	}
	q, _ := native.QuoRem(m, domain.DisplayPrecision)
	return q.String(), nil
}

// DisplayOrZero is ConvertNativeToDisplay for render paths: malformed input shows as "0".
func DisplayOrZero(nativeAmount string, denom domain.Denomination) string {
	s, err := ConvertNativeToDisplay(nativeAmount, denom)
	if err != nil {
		slog.Debug("rendering invalid amount as zero", "amount", nativeAmount, "denomination", denom.Name, "error", err)
		return "0"
	}
	return s
}

// ConvertNativeToDenomination divides a signed native amount by multiplier,
// truncated toward zero to precision fractional digits.
func ConvertNativeToDenomination(nativeAmount, multiplier string, precision int32) (decimal.Decimal, error) {
	native, err := domain.ParseNativeAmount(nativeAmount)
	if err != nil {
		return decimal.Zero, err
	}
	m, err := domain.Denomination{Name: multiplier, Multiplier: multiplier}.MultiplierDecimal()
	if err != nil {
		return decimal.Zero, err
	}
	q, _ := native.QuoRem(m, precision)
	return q, nil
}

// ConvertNativeToExchange converts a native amount into whole units of the
// exchange denomination, the unit exchange rates are quoted in.
func ConvertNativeToExchange(nativeAmount string, exchange domain.Denomination) (decimal.Decimal, error) {
	return ConvertNativeToDenomination(nativeAmount, exchange.Multiplier, domain.DividePrecision)
}

// ConvertDisplayToNative multiplies a display amount back into native units,
// dropping any fraction of a native unit.
func ConvertDisplayToNative(displayAmount string, denom domain.Denomination) (string, error) {
	d, err := decimal.NewFromString(displayAmount)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidAmount, displayAmount)
	}
	m, err := denom.MultiplierDecimal()
	if err != nil {
		return "", err
	}
	return d.Mul(m).Truncate(0).String(), nil
}

// ConvertCurrency converts amount of from into to using the rate table.
func ConvertCurrency(rates domain.ExchangeRates, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	rate, err := rates.Rate(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// FormatFiat renders a fiat amount with exactly two decimals, rounding half up.
func FormatFiat(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// Label joins a symbol and an amount with a space, omitting an empty symbol.
func Label(symbol, amount string) string {
	if symbol == "" {
		return amount
	}
	return symbol + " " + amount
}
