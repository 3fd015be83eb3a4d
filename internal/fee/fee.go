package fee

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletview/internal/display"
	"github.com/mtlprog/walletview/internal/domain"
)

// Thresholds are USD amounts above which a fee is highlighted.
// Color must not exceed Alert.
type Thresholds struct {
	Color decimal.Decimal
	Alert decimal.Decimal
}

// DefaultThresholds highlights fees above $2 and alerts above $5.
var DefaultThresholds = Thresholds{
	Color: decimal.NewFromInt(2),
	Alert: decimal.NewFromInt(5),
}

// Side is one currency a fee can be paid in, with its denominations.
type Side struct {
	CurrencyCode string              `json:"currencyCode"`
	Display      domain.Denomination `json:"display"`
	Exchange     domain.Denomination `json:"exchange"`
}

// Input is everything ComputeFeeDisplay reads from a resolved transaction and settings.
type Input struct {
	NetworkFee       string `json:"networkFee"`
	ParentNetworkFee string `json:"parentNetworkFee"`
	Primary          Side   `json:"primary"`
	Parent           Side   `json:"parent"`
	FiatCode         string `json:"fiatCode"` // e.g. "iso:EUR"
	FiatSymbol       string `json:"fiatSymbol"`
}

// Display is the rendered fee.
type Display struct {
	Fee         domain.Fee      `json:"-"`
	CryptoLabel string          `json:"cryptoLabel"`
	FiatLabel   string          `json:"fiatLabel"`
	Level       domain.FeeLevel `json:"level"`
	// RateErr records a missing rate that caused the fiat label or level to be omitted.
	RateErr error `json:"-"`
}

// Line renders the full fee line, e.g. "Fee: ₿ 0.0001 ($ 5.00)".
func (d Display) Line() string {
	if d.CryptoLabel == "" {
		return ""
	}
	if d.FiatLabel == "" {
		return "Fee: " + d.CryptoLabel
	}
	return fmt.Sprintf("Fee: %s (%s)", d.CryptoLabel, d.FiatLabel)
}

// Calculator renders fees against fixed thresholds.
type Calculator struct {
	thresholds Thresholds
}

// NewCalculator creates a Calculator. Thresholds with Color above Alert are swapped.
func NewCalculator(t Thresholds) *Calculator {
	if t.Color.GreaterThan(t.Alert) {
		t.Color, t.Alert = t.Alert, t.Color
	}
	return &Calculator{thresholds: t}
}

// SelectFee decides which currency the fee is paid in. A positive parent fee wins,
// then a positive primary fee. Empty or malformed strings count as zero. When no
// fee is positive but one is negative, ErrNegativeFee is returned.
func SelectFee(networkFee, parentNetworkFee string) (domain.Fee, error) {
	parent := parseFee(parentNetworkFee)
	primary := parseFee(networkFee)

	switch {
	case parent.IsPositive():
		return domain.ParentFee{Amount: parent}, nil
	case primary.IsPositive():
		return domain.PrimaryFee{Amount: primary}, nil
	case parent.IsNegative() || primary.IsNegative():
		return nil, fmt.Errorf("%w: networkFee=%q parentNetworkFee=%q", domain.ErrNegativeFee, networkFee, parentNetworkFee)
	default:
		return domain.ZeroFee{}, nil
	}
}

func parseFee(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := domain.ParseNativeAmount(s)
	if err != nil {
		slog.Warn("treating malformed fee as zero", "fee", s, "error", err)
		return decimal.Zero
	}
	return d
}

// Classify maps a USD-equivalent fee to a level. Comparisons are strict.
func (c *Calculator) Classify(usd decimal.Decimal) domain.FeeLevel {
	switch {
	case usd.GreaterThan(c.thresholds.Alert):
		return domain.FeeDanger
	case usd.GreaterThan(c.thresholds.Color):
		return domain.FeeWarning
	default:
		return domain.FeeNormal
	}
}

// ComputeFeeDisplay renders the network fee of a transaction in crypto and fiat
// terms and classifies it by its USD value. Missing rates degrade the result to
// crypto-only. Errors are ErrNegativeFee and a malformed denomination
// multiplier on the paying side; both return an empty Display.
func (c *Calculator) ComputeFeeDisplay(in Input, rates domain.ExchangeRates) (Display, error) {
	f, err := SelectFee(in.NetworkFee, in.ParentNetworkFee)
	if err != nil {
		slog.Warn("anomalous transaction fee", "currency", in.Primary.CurrencyCode, "error", err)
		return Display{}, err
	}

	var side Side
	var amount decimal.Decimal
	switch f := f.(type) {
	case domain.ZeroFee:
		return zeroDisplay(in), nil
	case domain.ParentFee:
		side, amount = in.Parent, f.Amount
	case domain.PrimaryFee:
		side, amount = in.Primary, f.Amount
	default:
		panic(fmt.Sprintf("unhandled fee type %T", f))
	}

	out := Display{Fee: f}
	native := amount.String()

	cryptoAmount, err := display.ConvertNativeToDenomination(native, side.Display.Multiplier, domain.DividePrecision)
	if err != nil {
		return Display{}, fmt.Errorf("converting fee to %s: %w", side.Display.Name, err)
	}
	out.CryptoLabel = display.Label(side.Display.Symbol, domain.TruncateString(cryptoAmount, domain.DisplayPrecision))

	exchangeAmount, err := display.ConvertNativeToExchange(native, side.Exchange)
	if err != nil {
		return Display{}, fmt.Errorf("converting fee to %s: %w", side.Exchange.Name, err)
	}

	if fiat, err := display.ConvertCurrency(rates, side.CurrencyCode, in.FiatCode, exchangeAmount); err != nil {
		out.RateErr = err
	} else {
		out.FiatLabel = display.Label(in.FiatSymbol, display.FormatFiat(fiat))
	}

	if usd, err := display.ConvertCurrency(rates, side.CurrencyCode, domain.USDCode, exchangeAmount); err != nil {
		out.RateErr = errors.Join(out.RateErr, err)
	} else {
		out.Level = c.Classify(usd)
	}

	return out, nil
}

// zeroDisplay shows "0" in the parent display symbol, else the primary one.
func zeroDisplay(in Input) Display {
	symbol := in.Parent.Display.SymbolOr(in.Primary.Display.Symbol)
	return Display{
		Fee:         domain.ZeroFee{},
		CryptoLabel: display.Label(symbol, "0"),
		FiatLabel:   display.Label(in.FiatSymbol, "0"),
		Level:       domain.FeeNormal,
	}
}
