package fee

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletview/internal/domain"
)

var (
	btcSide = Side{
		CurrencyCode: "BTC",
		Display:      domain.Denomination{Name: "BTC", Multiplier: "100000000", Symbol: "₿"},
		Exchange:     domain.Denomination{Name: "BTC", Multiplier: "100000000", Symbol: "₿"},
	}
	ethSide = Side{
		CurrencyCode: "ETH",
		Display:      domain.Denomination{Name: "mETH", Multiplier: "1000000000000000", Symbol: "mΞ"},
		Exchange:     domain.Denomination{Name: "ETH", Multiplier: "1000000000000000000", Symbol: "Ξ"},
	}
	usdtSide = Side{
		CurrencyCode: "USDT",
		Display:      domain.Denomination{Name: "USDT", Multiplier: "1000000"},
		Exchange:     domain.Denomination{Name: "USDT", Multiplier: "1000000"},
	}
)

func TestSelectFee(t *testing.T) {
	tests := []struct {
		name         string
		network      string
		parent       string
		want         domain.Fee
		wantNegative bool
	}{
		{"parent wins when positive", "100", "500000000000000", domain.ParentFee{Amount: decimal.RequireFromString("500000000000000")}, false},
		{"parent wins over absent network fee", "", "7", domain.ParentFee{Amount: decimal.NewFromInt(7)}, false},
		{"primary when parent zero", "2100", "0", domain.PrimaryFee{Amount: decimal.NewFromInt(2100)}, false},
		{"primary when parent absent", "2100", "", domain.PrimaryFee{Amount: decimal.NewFromInt(2100)}, false},
		{"both absent", "", "", domain.ZeroFee{}, false},
		{"both zero", "0", "0", domain.ZeroFee{}, false},
		{"malformed counts as zero", "abc", "", domain.ZeroFee{}, false},
		{"both negative", "-1", "-5", nil, true},
		{"only negative primary", "-1", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectFee(tt.network, tt.parent)
			if tt.wantNegative {
				if !errors.Is(err, domain.ErrNegativeFee) {
					t.Fatalf("error = %v, want ErrNegativeFee", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch want := tt.want.(type) {
			case domain.ParentFee:
				g, ok := got.(domain.ParentFee)
				if !ok || !g.Amount.Equal(want.Amount) {
					t.Errorf("SelectFee = %#v, want %#v", got, want)
				}
			case domain.PrimaryFee:
				g, ok := got.(domain.PrimaryFee)
				if !ok || !g.Amount.Equal(want.Amount) {
					t.Errorf("SelectFee = %#v, want %#v", got, want)
				}
			case domain.ZeroFee:
				if _, ok := got.(domain.ZeroFee); !ok {
					t.Errorf("SelectFee = %#v, want ZeroFee", got)
				}
			}
		})
	}
}

func TestComputeFeeDisplayPrimary(t *testing.T) {
	c := NewCalculator(DefaultThresholds)
	rates := domain.ExchangeRates{"BTC_iso:EUR": 40000, "BTC_iso:USD": 50000}

	got, err := c.ComputeFeeDisplay(Input{
		NetworkFee: "2000",
		Primary:    btcSide,
		Parent:     btcSide,
		FiatCode:   "iso:EUR",
		FiatSymbol: "€",
	}, rates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CryptoLabel != "₿ 0.00002" {
		t.Errorf("CryptoLabel = %q, want ₿ 0.00002", got.CryptoLabel)
	}
	if got.FiatLabel != "€ 0.80" {
		t.Errorf("FiatLabel = %q, want € 0.80", got.FiatLabel)
	}
	if got.Level != domain.FeeNormal {
		t.Errorf("Level = %s, want normal", got.Level)
	}
	if got.Line() != "Fee: ₿ 0.00002 (€ 0.80)" {
		t.Errorf("Line = %q", got.Line())
	}
	if _, ok := got.Fee.(domain.PrimaryFee); !ok {
		t.Errorf("Fee = %T, want PrimaryFee", got.Fee)
	}
}

func TestComputeFeeDisplayUsesParentDenomination(t *testing.T) {
	c := NewCalculator(DefaultThresholds)
	rates := domain.ExchangeRates{"ETH_iso:USD": 4000, "USDT_iso:USD": 1}

	got, err := c.ComputeFeeDisplay(Input{
		NetworkFee:       "123",
		ParentNetworkFee: "500000000000000",
		Primary:          usdtSide,
		Parent:           ethSide,
		FiatCode:         "iso:USD",
		FiatSymbol:       "$",
	}, rates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 0.0005 ETH shown in mETH
	if got.CryptoLabel != "mΞ 0.5" {
		t.Errorf("CryptoLabel = %q, want mΞ 0.5", got.CryptoLabel)
	}
	if got.FiatLabel != "$ 2.00" {
		t.Errorf("FiatLabel = %q, want $ 2.00", got.FiatLabel)
	}
	// exactly at the color threshold is still normal
	if got.Level != domain.FeeNormal {
		t.Errorf("Level = %s, want normal", got.Level)
	}
	if _, ok := got.Fee.(domain.ParentFee); !ok {
		t.Errorf("Fee = %T, want ParentFee", got.Fee)
	}
}

func TestClassificationBoundaries(t *testing.T) {
	c := NewCalculator(DefaultThresholds)
	rates := domain.ExchangeRates{"BTC_iso:USD": 50000}

	tests := []struct {
		name string
		fee  string // sats; 1 sat = $0.0005
		want domain.FeeLevel
	}{
		{"below color", "2000", domain.FeeNormal},
		{"exactly color", "4000", domain.FeeNormal},
		{"one unit above color", "4001", domain.FeeWarning},
		{"exactly alert", "10000", domain.FeeWarning},
		{"one unit above alert", "10001", domain.FeeDanger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ComputeFeeDisplay(Input{NetworkFee: tt.fee, Primary: btcSide, Parent: btcSide, FiatCode: "iso:USD", FiatSymbol: "$"}, rates)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Level != tt.want {
				t.Errorf("Level = %s, want %s", got.Level, tt.want)
			}
		})
	}
}

func TestComputeFeeDisplayMissingRate(t *testing.T) {
	c := NewCalculator(DefaultThresholds)

	got, err := c.ComputeFeeDisplay(Input{
		NetworkFee: "100000000",
		Primary:    btcSide,
		Parent:     btcSide,
		FiatCode:   "iso:EUR",
		FiatSymbol: "€",
	}, domain.ExchangeRates{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CryptoLabel != "₿ 1" {
		t.Errorf("CryptoLabel = %q, want ₿ 1", got.CryptoLabel)
	}
	if got.FiatLabel != "" {
		t.Errorf("FiatLabel = %q, want empty", got.FiatLabel)
	}
	if got.Level != domain.FeeNormal {
		t.Errorf("Level = %s, want normal", got.Level)
	}
	if !errors.Is(got.RateErr, domain.ErrRateUnavailable) {
		t.Errorf("RateErr = %v, want ErrRateUnavailable", got.RateErr)
	}
	if got.Line() != "Fee: ₿ 1" {
		t.Errorf("Line = %q", got.Line())
	}
}

func TestComputeFeeDisplayMissingUSDRateOnly(t *testing.T) {
	c := NewCalculator(DefaultThresholds)

	got, err := c.ComputeFeeDisplay(Input{
		NetworkFee: "100000000",
		Primary:    btcSide,
		Parent:     btcSide,
		FiatCode:   "iso:EUR",
		FiatSymbol: "€",
	}, domain.ExchangeRates{"BTC_iso:EUR": 40000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FiatLabel != "€ 40000.00" {
		t.Errorf("FiatLabel = %q", got.FiatLabel)
	}
	if got.Level != domain.FeeNormal {
		t.Errorf("Level = %s, want normal without a USD rate", got.Level)
	}
}

func TestComputeFeeDisplayZero(t *testing.T) {
	c := NewCalculator(DefaultThresholds)

	tests := []struct {
		name       string
		primary    Side
		parent     Side
		wantCrypto string
	}{
		{"parent symbol first", usdtSide, ethSide, "mΞ 0"},
		{"primary symbol fallback", btcSide, Side{}, "₿ 0"},
		{"no symbol", usdtSide, Side{}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ComputeFeeDisplay(Input{Primary: tt.primary, Parent: tt.parent, FiatSymbol: "$"}, domain.ExchangeRates{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.CryptoLabel != tt.wantCrypto {
				t.Errorf("CryptoLabel = %q, want %q", got.CryptoLabel, tt.wantCrypto)
			}
			if got.FiatLabel != "$ 0" {
				t.Errorf("FiatLabel = %q, want $ 0", got.FiatLabel)
			}
			if got.Level != domain.FeeNormal {
				t.Errorf("Level = %s, want normal", got.Level)
			}
		})
	}
}

func TestComputeFeeDisplayNegative(t *testing.T) {
	c := NewCalculator(DefaultThresholds)

	got, err := c.ComputeFeeDisplay(Input{NetworkFee: "-10", ParentNetworkFee: "-20", Primary: btcSide, Parent: btcSide}, domain.ExchangeRates{})
	if !errors.Is(err, domain.ErrNegativeFee) {
		t.Fatalf("error = %v, want ErrNegativeFee", err)
	}
	if got.CryptoLabel != "" || got.FiatLabel != "" || got.Line() != "" {
		t.Errorf("expected empty display, got %+v", got)
	}
}

func TestComputeFeeDisplayTruncatesCryptoLabel(t *testing.T) {
	c := NewCalculator(DefaultThresholds)

	got, err := c.ComputeFeeDisplay(Input{
		NetworkFee: "123456789012345",
		Primary:    ethSide,
		Parent:     ethSide,
		FiatCode:   domain.USDCode,
		FiatSymbol: "$",
	}, domain.ExchangeRates{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CryptoLabel != "mΞ 0.123456" {
		t.Errorf("CryptoLabel = %q, want mΞ 0.123456", got.CryptoLabel)
	}

	got, err = c.ComputeFeeDisplay(Input{NetworkFee: "999", Primary: ethSide, Parent: ethSide}, domain.ExchangeRates{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CryptoLabel != "mΞ 0" {
		t.Errorf("CryptoLabel = %q, want mΞ 0 for a sub-display fee", got.CryptoLabel)
	}
}

func TestComputeFeeDisplayMalformedMultiplier(t *testing.T) {
	c := NewCalculator(DefaultThresholds)
	broken := Side{CurrencyCode: "BTC", Display: domain.Denomination{Name: "BTC", Multiplier: "lots"}, Exchange: btcSide.Exchange}

	got, err := c.ComputeFeeDisplay(Input{NetworkFee: "100", Primary: broken, Parent: broken}, domain.ExchangeRates{})
	if err == nil {
		t.Fatal("expected error for malformed multiplier")
	}
	if got.CryptoLabel != "" || got.Line() != "" {
		t.Errorf("expected empty display, got %+v", got)
	}
}

func TestNewCalculatorOrdersThresholds(t *testing.T) {
	c := NewCalculator(Thresholds{Color: decimal.NewFromInt(10), Alert: decimal.NewFromInt(1)})
	if got := c.Classify(decimal.NewFromInt(5)); got != domain.FeeWarning {
		t.Errorf("Classify(5) = %s, want warning", got)
	}
}

func TestFeeLevelText(t *testing.T) {
	for _, l := range []domain.FeeLevel{domain.FeeNormal, domain.FeeWarning, domain.FeeDanger} {
		text, _ := l.MarshalText()
		var back domain.FeeLevel
		if err := back.UnmarshalText(text); err != nil || back != l {
			t.Errorf("round trip %s: got %s, %v", l, back, err)
		}
	}
}
