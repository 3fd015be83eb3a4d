// Package txlist renders transaction list rows.
package txlist

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletview/internal/currency"
	"github.com/mtlprog/walletview/internal/display"
	"github.com/mtlprog/walletview/internal/domain"
)

// DateLayout formats the date of a confirmed transaction.
const DateLayout = "Jan 2, 2006 3:04 PM"

// Status is the confirmation state of a transaction.
type Status string

const (
	StatusSynchronizing Status = "synchronizing"
	StatusDropped       Status = "dropped"
	StatusUnconfirmed   Status = "unconfirmed"
	StatusConfirming    Status = "confirming"
	StatusConfirmed     Status = "confirmed"
)

var categoryLabels = map[string]string{
	"exchange": "Exchange",
	"expense":  "Expense",
	"transfer": "Transfer",
	"income":   "Income",
}

// Metadata is user-entered data attached to a transaction.
type Metadata struct {
	Name       string  `json:"name,omitempty"`
	Category   string  `json:"category,omitempty"`
	AmountFiat float64 `json:"amountFiat,omitempty"`
}

// Transaction is the part of a wallet transaction the list reads.
// NativeAmount is negative for sends.
type Transaction struct {
	TxID         string    `json:"txid"`
	NativeAmount string    `json:"nativeAmount"`
	BlockHeight  int64     `json:"blockHeight"`
	Date         time.Time `json:"date"`
	Metadata     *Metadata `json:"metadata,omitempty"`
}

// Wallet carries the wallet-level inputs of a row.
type Wallet struct {
	CurrencyCode          string              `json:"currencyCode"`
	CurrencyName          string              `json:"currencyName"`
	IsoFiatCurrencyCode   string              `json:"isoFiatCurrencyCode"`
	BlockHeight           int64               `json:"blockHeight"`
	RequiredConfirmations int64               `json:"requiredConfirmations"`
	Denomination          domain.Denomination `json:"denomination"`
	ExchangeDenomination  domain.Denomination `json:"exchangeDenomination"`
}

// Row is a rendered transaction.
type Row struct {
	TxID         string `json:"txid"`
	Sent         bool   `json:"sent"`
	Title        string `json:"title"`
	CryptoAmount string `json:"cryptoAmount"`
	FiatAmount   string `json:"fiatAmount"`
	Status       Status `json:"status"`
	StatusText   string `json:"statusText"`
	Category     string `json:"category,omitempty"`
}

// Rows renders txs in order.
func Rows(w Wallet, txs []Transaction, rates domain.ExchangeRates) []Row {
	return lo.Map(txs, func(tx Transaction, _ int) Row {
		return Build(w, tx, rates)
	})
}

// Build renders a single transaction.
func Build(w Wallet, tx Transaction, rates domain.ExchangeRates) Row {
	native := domain.SafeParse(tx.NativeAmount)
	sent := native.IsNegative()
	abs := native.Abs().String()

	sign := "+"
	if sent {
		sign = "-"
	}

	fiatAmount := fiatValue(w, tx, abs, rates)
	status, statusText := Confirmation(w.BlockHeight, tx.BlockHeight, w.RequiredConfirmations)
	if status == StatusConfirmed {
		statusText = tx.Date.Format(DateLayout)
	}

	row := Row{
		TxID:         tx.TxID,
		Sent:         sent,
		Title:        title(sent, w.CurrencyName, tx.Metadata),
		CryptoAmount: sign + " " + display.Label(w.Denomination.Symbol, display.DisplayOrZero(abs, w.Denomination)),
		FiatAmount:   display.Label(currency.FiatSymbol(w.IsoFiatCurrencyCode), display.FormatFiat(fiatAmount)),
		Status:       status,
		StatusText:   statusText,
	}
	if tx.Metadata != nil {
		row.Category = Category(tx.Metadata.Category)
	}
	return row
}

// Confirmation derives the status of a transaction at txHeight from the
// wallet's view of the chain.
func Confirmation(walletHeight, txHeight, required int64) (Status, string) {
	var confirmations int64
	if walletHeight != 0 && txHeight > 0 {
		confirmations = walletHeight - txHeight + 1
	}

	switch {
	case walletHeight == 0:
		return StatusSynchronizing, "Synchronizing"
	case txHeight < 0:
		return StatusDropped, "Dropped"
	case confirmations <= 0:
		return StatusUnconfirmed, "Unconfirmed"
	case confirmations < required:
		return StatusConfirming, fmt.Sprintf("%d/%d Confirmations", confirmations, required)
	default:
		return StatusConfirmed, ""
	}
}

// Category renders "main:sub" as "Main:sub" for the known main categories.
// Anything else, including a category without a subcategory, renders empty.
func Category(full string) string {
	main, sub, ok := strings.Cut(full, ":")
	if !ok || sub == "" {
		return ""
	}
	label, known := categoryLabels[strings.ToLower(main)]
	if !known {
		return ""
	}
	return label + ":" + sub
}

func title(sent bool, currencyName string, md *Metadata) string {
	if md != nil && md.Name != "" {
		return md.Name
	}
	if sent {
		return "Sent " + currencyName
	}
	return "Received " + currencyName
}

// fiatValue prefers the amount saved with the transaction and falls back to today's rate.
func fiatValue(w Wallet, tx Transaction, absNative string, rates domain.ExchangeRates) decimal.Decimal {
	if tx.Metadata != nil && tx.Metadata.AmountFiat != 0 {
		return decimal.NewFromFloat(tx.Metadata.AmountFiat).Abs()
	}
	amount, err := display.ConvertNativeToExchange(absNative, w.ExchangeDenomination)
	if err != nil {
		return decimal.Zero
	}
	fiat, err := display.ConvertCurrency(rates, w.CurrencyCode, w.IsoFiatCurrencyCode, amount)
	if err != nil {
		return decimal.Zero
	}
	return fiat
}
