package currency

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/mtlprog/walletview/internal/domain"
)

var (
	// ErrUnknownCurrency indicates a currency code missing from the table.
	ErrUnknownCurrency = errors.New("unknown currency code")
	// ErrCodeTaken indicates a code held by a currency that cannot be replaced.
	ErrCodeTaken = errors.New("currency code taken")
)

// TokenParams lists which fields a custom token for this currency must provide.
// A nil *TokenParams means custom tokens are not supported.
type TokenParams struct {
	CurrencyName    bool `json:"currencyName"`
	CurrencyCode    bool `json:"currencyCode"`
	DecimalPlaces   bool `json:"decimalPlaces"`
	ContractAddress bool `json:"contractAddress"`
}

// Info describes a currency or token and the denominations it can be shown in.
type Info struct {
	CurrencyCode    string                `json:"currencyCode"`
	DisplayName     string                `json:"displayName"`
	ParentCode      string                `json:"parentCode,omitempty"`
	ContractAddress string                `json:"contractAddress,omitempty"`
	Denominations   []domain.Denomination `json:"denominations"`
	CustomTokens    *TokenParams          `json:"customTokens,omitempty"`
	Custom          bool                  `json:"custom,omitempty"`
	Hidden          bool                  `json:"hidden,omitempty"`
}

// IsToken reports whether the currency lives on a parent chain.
func (i Info) IsToken() bool {
	return i.ParentCode != ""
}

// ExchangeDenomination returns the denomination named after the currency code,
// falling back to the first one listed.
func (i Info) ExchangeDenomination() domain.Denomination {
	d, found := lo.Find(i.Denominations, func(d domain.Denomination) bool {
		return d.Name == i.CurrencyCode
	})
	if found {
		return d
	}
	return lo.FirstOrEmpty(i.Denominations)
}

var ethTokenParams = &TokenParams{CurrencyName: true, CurrencyCode: true, DecimalPlaces: true, ContractAddress: true}

// Builtin is the static currency table shipped with the service.
var Builtin = []Info{
	{CurrencyCode: "BTC", DisplayName: "Bitcoin", Denominations: []domain.Denomination{
		{Name: "BTC", Multiplier: "100000000", Symbol: "₿"},
		{Name: "mBTC", Multiplier: "100000", Symbol: "m₿"},
		{Name: "bits", Multiplier: "100", Symbol: "ƀ"},
		{Name: "sats", Multiplier: "1", Symbol: "s"},
	}},
	{CurrencyCode: "BCH", DisplayName: "Bitcoin Cash", Denominations: []domain.Denomination{
		{Name: "BCH", Multiplier: "100000000", Symbol: "₿"},
		{Name: "mBCH", Multiplier: "100000", Symbol: "m₿"},
		{Name: "cash", Multiplier: "100", Symbol: "ƀ"},
	}},
	{CurrencyCode: "LTC", DisplayName: "Litecoin", Denominations: []domain.Denomination{
		{Name: "LTC", Multiplier: "100000000", Symbol: "Ł"},
		{Name: "mLTC", Multiplier: "100000", Symbol: "mŁ"},
	}},
	{CurrencyCode: "ETH", DisplayName: "Ethereum", CustomTokens: ethTokenParams, Denominations: []domain.Denomination{
		{Name: "ETH", Multiplier: "1000000000000000000", Symbol: "Ξ"},
		{Name: "mETH", Multiplier: "1000000000000000", Symbol: "mΞ"},
	}},
	{CurrencyCode: "ETC", DisplayName: "Ethereum Classic", CustomTokens: ethTokenParams, Denominations: []domain.Denomination{
		{Name: "ETC", Multiplier: "1000000000000000000", Symbol: "Ξ"},
		{Name: "mETC", Multiplier: "1000000000000000", Symbol: "mΞ"},
	}},
	{CurrencyCode: "XLM", DisplayName: "Stellar", Denominations: []domain.Denomination{
		{Name: "XLM", Multiplier: "10000000", Symbol: "*"},
	}},
	{CurrencyCode: "XRP", DisplayName: "XRP", Denominations: []domain.Denomination{
		{Name: "XRP", Multiplier: "1000000", Symbol: "X"},
	}},
	{CurrencyCode: "EOS", DisplayName: "EOS", CustomTokens: &TokenParams{CurrencyCode: true, DecimalPlaces: true, ContractAddress: true}, Denominations: []domain.Denomination{
		{Name: "EOS", Multiplier: "10000", Symbol: "E"},
	}},
	{CurrencyCode: "FIO", DisplayName: "FIO", Denominations: []domain.Denomination{
		{Name: "FIO", Multiplier: "1000000000", Symbol: "ᵮ"},
	}},
	{CurrencyCode: "XTZ", DisplayName: "Tezos", Denominations: []domain.Denomination{
		{Name: "XTZ", Multiplier: "1000000", Symbol: "ꜩ"},
	}},
	{CurrencyCode: "USDT", DisplayName: "Tether", ParentCode: "ETH", ContractAddress: "0xdac17f958d2ee523a2206206994597c13d831ec7", Denominations: []domain.Denomination{
		{Name: "USDT", Multiplier: "1000000"},
	}},
	{CurrencyCode: "USDC", DisplayName: "USD Coin", ParentCode: "ETH", ContractAddress: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Denominations: []domain.Denomination{
		{Name: "USDC", Multiplier: "1000000"},
	}},
	{CurrencyCode: "DAI", DisplayName: "Dai Stablecoin", ParentCode: "ETH", ContractAddress: "0x6b175474e89094c44da98b954eedeac495271d0f", Denominations: []domain.Denomination{
		{Name: "DAI", Multiplier: "1000000000000000000"},
	}},
}

// Table holds currency infos and the user's display-denomination choices.
// It is safe for concurrent use.
type Table struct {
	mu       sync.RWMutex
	infos    map[string]Info
	settings map[string]string // currency code -> selected display multiplier
}

// NewTable creates a table seeded with the given infos.
func NewTable(infos ...Info) *Table {
	t := &Table{
		infos:    make(map[string]Info, len(infos)),
		settings: make(map[string]string),
	}
	for _, info := range infos {
		t.infos[info.CurrencyCode] = info
	}
	return t
}

// Default creates a table seeded with the built-in currencies.
func Default() *Table {
	return NewTable(Builtin...)
}

// Info looks up a currency by code.
func (t *Table) Info(code string) (Info, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, ok := t.infos[code]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	return info, nil
}

// ParentCurrency returns the code of the chain currency code lives on:
// the parent for a token, code itself otherwise.
func (t *Table) ParentCurrency(code string) (string, error) {
	info, err := t.Info(code)
	if err != nil {
		return "", err
	}
	if info.IsToken() {
		return info.ParentCode, nil
	}
	return info.CurrencyCode, nil
}

// Codes returns all known currency codes in sorted order.
func (t *Table) Codes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	codes := lo.Keys(t.infos)
	sort.Strings(codes)
	return codes
}

// Tokens returns the tokens registered under parentCode.
func (t *Table) Tokens(parentCode string) []Info {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tokens := lo.Filter(lo.Values(t.infos), func(i Info, _ int) bool {
		return i.ParentCode == parentCode
	})
	sort.Slice(tokens, func(a, b int) bool { return tokens[a].CurrencyCode < tokens[b].CurrencyCode })
	return tokens
}

// ExchangeDenomination returns the denomination exchange rates are quoted in.
func (t *Table) ExchangeDenomination(code string) (domain.Denomination, error) {
	info, err := t.Info(code)
	if err != nil {
		return domain.Denomination{}, err
	}
	return info.ExchangeDenomination(), nil
}

// DisplayDenomination returns the user-selected denomination for code,
// or the exchange denomination when nothing was selected.
func (t *Table) DisplayDenomination(code string) (domain.Denomination, error) {
	info, err := t.Info(code)
	if err != nil {
		return domain.Denomination{}, err
	}

	t.mu.RLock()
	multiplier, ok := t.settings[code]
	t.mu.RUnlock()

	if ok {
		if d, found := lo.Find(info.Denominations, func(d domain.Denomination) bool {
			return d.Multiplier == multiplier
		}); found {
			return d, nil
		}
	}
	return info.ExchangeDenomination(), nil
}

// SetDisplayDenomination selects the display denomination for code by multiplier.
func (t *Table) SetDisplayDenomination(code, multiplier string) (domain.Denomination, error) {
	info, err := t.Info(code)
	if err != nil {
		return domain.Denomination{}, err
	}
	d, found := lo.Find(info.Denominations, func(d domain.Denomination) bool {
		return d.Multiplier == multiplier
	})
	if !found {
		return domain.Denomination{}, fmt.Errorf("currency %s has no denomination with multiplier %s", code, multiplier)
	}

	t.mu.Lock()
	t.settings[code] = multiplier
	t.mu.Unlock()

	return d, nil
}

// Put registers or replaces a currency.
func (t *Table) Put(info Info) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.infos[info.CurrencyCode] = info
}

// AddToken registers a custom token. The code must be free or held by a hidden
// custom token; the check and the insert happen under one write lock.
func (t *Table) AddToken(info Info) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.infos[info.CurrencyCode]; ok && !(existing.Custom && existing.Hidden) {
		return fmt.Errorf("%w: %s", ErrCodeTaken, info.CurrencyCode)
	}
	t.infos[info.CurrencyCode] = info
	return nil
}
