package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// USDCode is the ISO code used for fee classification and historical rates.
const USDCode = "iso:USD"

// historicalKeyLayout matches a JavaScript Date#toISOString timestamp.
const historicalKeyLayout = "2006-01-02T15:04:05.000Z"

// ErrRateUnavailable indicates that no exchange rate exists for a currency pair.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// ExchangeRates maps "{from}_{to}" pair keys to the amount of "to" per one whole "from".
type ExchangeRates map[string]float64

// RateKey formats a pair key, e.g. "BTC_iso:USD".
func RateKey(from, to string) string {
	return from + "_" + to
}

// HistoricalKey formats a pair key pinned to an hour, e.g. "BTC_iso:USD_2026-10-14T10:00:00.000Z".
func HistoricalKey(from, to string, at time.Time) string {
	return RateKey(from, to) + "_" + at.UTC().Format(historicalKeyLayout)
}

// YesterdayHour returns now minus one day, rounded down to the hour in UTC.
func YesterdayHour(now time.Time) time.Time {
	return now.UTC().Truncate(time.Hour).AddDate(0, 0, -1)
}

// Rate looks up the rate for from->to. Identical codes have rate 1, and an
// inverse entry is used when the direct one is missing.
func (r ExchangeRates) Rate(from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if v, ok := r[RateKey(from, to)]; ok && v > 0 {
		return decimal.NewFromFloat(v), nil
	}
	if v, ok := r[RateKey(to, from)]; ok && v > 0 {
		return decimal.NewFromInt(1).DivRound(decimal.NewFromFloat(v), DividePrecision), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, RateKey(from, to))
}

// Lookup returns the raw rate stored under key, if positive.
func (r ExchangeRates) Lookup(key string) (decimal.Decimal, bool) {
	v, ok := r[key]
	if !ok || v <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v), true
}

// Merge returns a new table with entries from other overriding r.
func (r ExchangeRates) Merge(other ExchangeRates) ExchangeRates {
	out := make(ExchangeRates, len(r)+len(other))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
