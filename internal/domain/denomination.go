package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Denomination is a named display scale for native amounts.
// Multiplier is the number of native units in one unit of this denomination.
type Denomination struct {
	Name       string `json:"name"`
	Multiplier string `json:"multiplier"`
	Symbol     string `json:"symbol,omitempty"`
}

// MultiplierDecimal parses the multiplier, which must be a positive integer.
func (d Denomination) MultiplierDecimal() (decimal.Decimal, error) {
	m, err := ParseNativeAmount(d.Multiplier)
	if err != nil || !m.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid multiplier %q for denomination %s", d.Multiplier, d.Name)
	}
	return m, nil
}

// SymbolOr returns the denomination symbol, or fallback when it has none.
func (d Denomination) SymbolOr(fallback string) string {
	if d.Symbol != "" {
		return d.Symbol
	}
	return fallback
}
