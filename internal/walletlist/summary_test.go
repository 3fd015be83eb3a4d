package walletlist

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletview/internal/currency"
	"github.com/mtlprog/walletview/internal/domain"
)

func TestSummary(t *testing.T) {
	table := currency.Default()
	if _, err := table.SetDisplayDenomination("BTC", "100000"); err != nil {
		t.Fatalf("SetDisplayDenomination: %v", err)
	}
	b := NewBuilder(table, true)

	s := b.Summary(testWallets()["w1"], "BTC", testRates())

	if s.CryptoAmount != "1,500" || s.DenominationSymbol != "m₿" {
		t.Errorf("crypto = %q %q, want m₿ 1,500", s.DenominationSymbol, s.CryptoAmount)
	}
	if s.FiatBalance != "63,000.00" || s.FiatSymbol != "€" || s.FiatCurrencyCode != "EUR" {
		t.Errorf("fiat = %q %q %q", s.FiatSymbol, s.FiatBalance, s.FiatCurrencyCode)
	}
}

func TestSummaryWithoutRate(t *testing.T) {
	b := NewBuilder(currency.Default(), true)

	s := b.Summary(testWallets()["w3"], "XLM", testRates())

	if s.FiatBalance != "0.00" {
		t.Errorf("FiatBalance = %q, want 0.00", s.FiatBalance)
	}
	if s.CryptoAmount != "1" {
		t.Errorf("CryptoAmount = %q, want 1", s.CryptoAmount)
	}
}

func TestSummaryTokenBalance(t *testing.T) {
	b := NewBuilder(currency.Default(), true)

	s := b.Summary(testWallets()["w2"], "USDT", testRates())

	if s.CryptoAmount != "2.5" || s.FiatBalance != "2.50" {
		t.Errorf("summary = %+v", s)
	}
}

func TestTotalFiat(t *testing.T) {
	rates := domain.ExchangeRates{
		"BTC_iso:USD":     52500,
		"ETH_iso:USD":     3000,
		"USDT_iso:USD":    1,
		"iso:USD_iso:EUR": 0.8,
	}
	wallets := []Wallet{testWallets()["w1"], testWallets()["w2"], testWallets()["w3"]}

	got := TotalFiat(currency.Default(), wallets, "iso:EUR", rates)

	// (1.5*52500 + 2*3000 + 2.5) * 0.8; XLM has no rate
	want := decimal.RequireFromString("67802")
	if !got.Equal(want) {
		t.Errorf("TotalFiat = %s, want %s", got, want)
	}
}

func TestTotalFiatWithoutAccountRate(t *testing.T) {
	got := TotalFiat(currency.Default(), []Wallet{testWallets()["w1"]}, "iso:JPY", domain.ExchangeRates{"BTC_iso:USD": 1})
	if !got.IsZero() {
		t.Errorf("TotalFiat = %s, want 0", got)
	}
}
