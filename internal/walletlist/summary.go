package walletlist

import (
	"log/slog"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletview/internal/currency"
	"github.com/mtlprog/walletview/internal/display"
	"github.com/mtlprog/walletview/internal/domain"
)

// Summary is the balance header shown above a wallet's transaction list.
type Summary struct {
	WalletID           string `json:"walletId"`
	WalletName         string `json:"walletName"`
	CurrencyCode       string `json:"currencyCode"`
	DenominationSymbol string `json:"denominationSymbol"`
	CryptoAmount       string `json:"cryptoAmount"`
	FiatSymbol         string `json:"fiatSymbol"`
	FiatBalance        string `json:"fiatBalance"`
	FiatCurrencyCode   string `json:"fiatCurrencyCode"`
}

// Summary renders the balance of code held by w.
func (b *Builder) Summary(w Wallet, code string, rates domain.ExchangeRates) Summary {
	balance := w.NativeBalances[code]
	if code == w.CurrencyCode && w.PrimaryNativeBalance != "" {
		balance = w.PrimaryNativeBalance
	}
	if balance == "" {
		balance = "0"
	}

	denom, _ := b.denoms.DisplayDenomination(code)
	s := Summary{
		WalletID:           w.ID,
		WalletName:         w.Name,
		CurrencyCode:       code,
		DenominationSymbol: denom.Symbol,
		CryptoAmount:       display.GroupThousands(display.DisplayOrZero(balance, denom)),
		FiatSymbol:         currency.FiatSymbol(w.IsoFiatCurrencyCode),
		FiatCurrencyCode:   currency.StripISO(w.IsoFiatCurrencyCode),
		FiatBalance:        "0.00",
	}

	exchange, err := b.denoms.ExchangeDenomination(code)
	if err != nil {
		return s
	}
	amount, err := display.ConvertNativeToExchange(balance, exchange)
	if err != nil {
		return s
	}
	fiat, err := display.ConvertCurrency(rates, code, w.IsoFiatCurrencyCode, amount)
	if err == nil && fiat.GreaterThan(dustThreshold) {
		s.FiatBalance = display.GroupThousands(display.FormatFiat(fiat))
	}
	return s
}

// TotalFiat sums every balance of every wallet in the account fiat currency iso,
// converting through USD. Balances without a rate are skipped.
func TotalFiat(denoms Denominations, wallets []Wallet, iso string, rates domain.ExchangeRates) decimal.Decimal {
	usdToFiat, err := rates.Rate(domain.USDCode, iso)
	if err != nil {
		slog.Debug("no USD rate for account fiat", "fiat", iso, "error", err)
		return decimal.Zero
	}

	return lo.Reduce(wallets, func(acc decimal.Decimal, w Wallet, _ int) decimal.Decimal {
		return lo.Reduce(lo.Entries(walletBalances(w)), func(acc decimal.Decimal, e lo.Entry[string, string], _ int) decimal.Decimal {
			exchange, err := denoms.ExchangeDenomination(e.Key)
			if err != nil {
				return acc
			}
			amount, err := display.ConvertNativeToExchange(e.Value, exchange)
			if err != nil {
				return acc
			}
			usd, err := display.ConvertCurrency(rates, e.Key, domain.USDCode, amount)
			if err != nil {
				return acc
			}
			return domain.SafeSum(acc, usd.Mul(usdToFiat))
		}, acc)
	}, decimal.Zero)
}

// walletBalances returns all balances of w, including the primary one.
func walletBalances(w Wallet) map[string]string {
	out := make(map[string]string, len(w.NativeBalances)+1)
	for code, balance := range w.NativeBalances {
		out[code] = balance
	}
	if w.PrimaryNativeBalance != "" {
		out[w.CurrencyCode] = w.PrimaryNativeBalance
	}
	return out
}
