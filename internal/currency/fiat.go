package currency

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mtlprog/walletview/internal/domain"
)

const isoPrefix = "iso:"

// maxDecimalPlaces bounds custom token precision (well past any chain in use).
const maxDecimalPlaces = 36

var fiatSymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"KRW": "₩",
	"INR": "₹",
	"RUB": "₽",
	"UAH": "₴",
	"TRY": "₺",
	"BRL": "R$",
	"CAD": "$",
	"AUD": "$",
	"MXN": "$",
	"CHF": "CHF",
	"PLN": "zł",
	"ILS": "₪",
	"NGN": "₦",
	"PHP": "₱",
	"VND": "₫",
	"THB": "฿",
}

// StripISO removes the "iso:" prefix from a fiat code.
func StripISO(code string) string {
	return strings.TrimPrefix(code, isoPrefix)
}

// ToISO adds the "iso:" prefix to a fiat code if missing.
func ToISO(code string) string {
	if strings.HasPrefix(code, isoPrefix) {
		return code
	}
	return isoPrefix + strings.ToUpper(code)
}

// FiatSymbol returns the display glyph for a fiat code, with or without the "iso:" prefix.
// Unknown codes return an empty string.
func FiatSymbol(code string) string {
	return fiatSymbols[StripISO(code)]
}

// FiatDenomination returns the display denomination of a fiat currency (cents as native units).
func FiatDenomination(code string) domain.Denomination {
	return domain.Denomination{
		Name:       StripISO(code),
		Multiplier: "100",
		Symbol:     FiatSymbol(code),
	}
}

// DecimalPlacesToDenomination converts a decimal-places count into a multiplier string,
// e.g. "8" -> "100000000".
func DecimalPlacesToDenomination(places string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(places))
	if err != nil {
		return "", fmt.Errorf("parsing decimal places %q: %w", places, err)
	}
	if n < 0 || n > maxDecimalPlaces {
		return "", fmt.Errorf("decimal places %d out of range 0..%d", n, maxDecimalPlaces)
	}
	return "1" + strings.Repeat("0", n), nil
}
