package walletlist

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletview/internal/currency"
	"github.com/mtlprog/walletview/internal/display"
	"github.com/mtlprog/walletview/internal/domain"
)

// NoExchangeRate is shown in place of a rate that is not in the table.
const NoExchangeRate = "No Exchange Rate"

// dustThreshold hides fiat balances too small to show at two decimals.
var dustThreshold = decimal.RequireFromString("0.000001")

// Denominations resolves display and exchange denominations by currency code.
type Denominations interface {
	DisplayDenomination(code string) (domain.Denomination, error)
	ExchangeDenomination(code string) (domain.Denomination, error)
}

// Wallet is the part of a wallet the list reads.
type Wallet struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	CurrencyCode         string            `json:"currencyCode"`
	IsoFiatCurrencyCode  string            `json:"isoFiatCurrencyCode"`
	PrimaryNativeBalance string            `json:"primaryNativeBalance"`
	NativeBalances       map[string]string `json:"nativeBalances"`
}

// Item is one list entry. Key is "{walletId}" or "{walletId}:{suffix}";
// FullCurrencyCode is "ETH" for the wallet itself or "ETH-USDT" for a token.
type Item struct {
	Key              string `json:"key"`
	FullCurrencyCode string `json:"fullCurrencyCode"`
}

// Trend is the direction of the 24h price change.
type Trend string

const (
	TrendNone Trend = ""
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// Row is a rendered wallet list entry.
type Row struct {
	Key                    string `json:"key"`
	WalletID               string `json:"walletId"`
	WalletName             string `json:"walletName,omitempty"`
	CurrencyCode           string `json:"currencyCode,omitempty"`
	Empty                  bool   `json:"empty,omitempty"`
	IsToken                bool   `json:"isToken,omitempty"`
	CryptoAmount           string `json:"cryptoAmount"`
	FiatBalance            string `json:"fiatBalance"`
	FiatBalanceSymbol      string `json:"fiatBalanceSymbol"`
	ExchangeRate           string `json:"exchangeRate"`
	ExchangeRateFiatSymbol string `json:"exchangeRateFiatSymbol"`
	Change                 string `json:"change"`
	Trend                  Trend  `json:"trend,omitempty"`
}

// Builder derives list rows from wallets, settings and rates.
type Builder struct {
	denoms      Denominations
	showBalance bool
	now         func() time.Time
}

// NewBuilder creates a Builder. When showBalance is false, amounts are left blank.
func NewBuilder(denoms Denominations, showBalance bool) *Builder {
	return &Builder{denoms: denoms, showBalance: showBalance, now: time.Now}
}

// Rows renders every item in order.
func (b *Builder) Rows(wallets map[string]Wallet, items []Item, rates domain.ExchangeRates) []Row {
	return lo.Map(items, func(item Item, _ int) Row {
		return b.Row(wallets, item, rates)
	})
}

// Row renders a single item. Items pointing at a missing wallet render as Empty.
func (b *Builder) Row(wallets map[string]Wallet, item Item, rates domain.ExchangeRates) Row {
	walletID, _, _ := strings.Cut(item.Key, ":")
	w, ok := wallets[walletID]
	if !ok || item.FullCurrencyCode == "" {
		return Row{Key: item.Key, WalletID: walletID, Empty: true}
	}

	isToken := w.CurrencyCode != item.FullCurrencyCode
	code := item.FullCurrencyCode
	balance := w.PrimaryNativeBalance
	if isToken {
		if _, token, found := strings.Cut(item.FullCurrencyCode, "-"); found {
			code = token
		}
		balance = w.NativeBalances[code]
	}
	if balance == "" {
		balance = "0"
	}

	row := Row{
		Key:          item.Key,
		WalletID:     walletID,
		WalletName:   w.Name,
		CurrencyCode: code,
		IsToken:      isToken,
	}

	fiatSymbol := currency.FiatSymbol(w.IsoFiatCurrencyCode)
	rate, hasRate := rates.Lookup(domain.RateKey(code, w.IsoFiatCurrencyCode))

	if b.showBalance {
		denom, _ := b.denoms.DisplayDenomination(code)
		amount := display.GroupThousands(display.DisplayOrZero(balance, denom))
		if isToken {
			row.CryptoAmount = amount
		} else {
			row.CryptoAmount = display.Label(denom.Symbol, amount)
		}

		if hasRate {
			row.FiatBalance = b.fiatBalance(code, balance, rate)
			row.FiatBalanceSymbol = fiatSymbol
		}
	}

	if hasRate {
		row.ExchangeRate = display.GroupThousands(display.FormatFiat(rate)) + "/" + code
		row.ExchangeRateFiatSymbol = fiatSymbol
	} else {
		row.ExchangeRate = NoExchangeRate
	}

	row.Change, row.Trend = b.change(code, w.IsoFiatCurrencyCode, rate, hasRate, rates)
	return row
}

func (b *Builder) fiatBalance(code, balance string, rate decimal.Decimal) string {
	exchange, err := b.denoms.ExchangeDenomination(code)
	if err != nil {
		return "0"
	}
	amount, err := display.ConvertNativeToExchange(balance, exchange)
	if err != nil {
		return "0"
	}
	fiat := amount.Mul(rate)
	if !fiat.GreaterThan(dustThreshold) {
		return "0"
	}
	return display.GroupThousands(display.FormatFiat(fiat))
}

// change compares the current rate with yesterday's USD rate converted to the wallet fiat.
func (b *Builder) change(code, iso string, rate decimal.Decimal, hasRate bool, rates domain.ExchangeRates) (string, Trend) {
	if !hasRate {
		return "", TrendNone
	}
	yesterdayUSD, ok := rates.Lookup(domain.HistoricalKey(code, domain.USDCode, domain.YesterdayHour(b.now())))
	if !ok {
		return "", TrendNone
	}
	fiatPerUSD := decimal.NewFromInt(1)
	if iso != domain.USDCode {
		if fiatPerUSD, ok = rates.Lookup(domain.RateKey(domain.USDCode, iso)); !ok {
			return "", TrendNone
		}
	}

	yesterday := yesterdayUSD.Mul(fiatPerUSD)
	pct := rate.Sub(yesterday).DivRound(yesterday, domain.DividePrecision).Mul(decimal.NewFromInt(100))
	formatted := pct.Abs().StringFixed(2)

	switch {
	case formatted == "0.00":
		return "0.00%", TrendNone
	case pct.IsPositive():
		return "+ " + formatted + "%", TrendUp
	default:
		return "- " + formatted + "%", TrendDown
	}
}
