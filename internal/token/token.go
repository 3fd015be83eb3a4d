// Package token validates and registers user-defined tokens.
package token

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mtlprog/walletview/internal/currency"
	"github.com/mtlprog/walletview/internal/domain"
)

var (
	ErrDuplicateCurrencyCode   = errors.New("currency code already exists")
	ErrInvalidTokenInfo        = errors.New("invalid token information")
	ErrCustomTokensUnsupported = errors.New("custom tokens not supported")
)

// Registry is the currency table tokens are added to.
type Registry interface {
	Info(code string) (currency.Info, error)
	AddToken(info currency.Info) error
	Put(info currency.Info)
}

// Request is a custom token as entered by the user.
type Request struct {
	ParentCode      string `json:"parentCode"`
	CurrencyName    string `json:"currencyName"`
	CurrencyCode    string `json:"currencyCode"`
	ContractAddress string `json:"contractAddress"`
	DecimalPlaces   string `json:"decimalPlaces"`
}

// Normalize trims the request and upper-cases the currency code.
func (r Request) Normalize() Request {
	return Request{
		ParentCode:      strings.TrimSpace(r.ParentCode),
		CurrencyName:    strings.TrimSpace(r.CurrencyName),
		CurrencyCode:    strings.ToUpper(strings.TrimSpace(r.CurrencyCode)),
		ContractAddress: strings.TrimSpace(r.ContractAddress),
		DecimalPlaces:   strings.TrimSpace(r.DecimalPlaces),
	}
}

// Validate checks that r carries every field params requires.
func Validate(params currency.TokenParams, r Request) error {
	missing := make([]string, 0, 4)
	if params.CurrencyName && r.CurrencyName == "" {
		missing = append(missing, "currencyName")
	}
	if params.CurrencyCode && r.CurrencyCode == "" {
		missing = append(missing, "currencyCode")
	}
	if params.DecimalPlaces && r.DecimalPlaces == "" {
		missing = append(missing, "decimalPlaces")
	}
	if params.ContractAddress && r.ContractAddress == "" {
		missing = append(missing, "contractAddress")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidTokenInfo, strings.Join(missing, ", "))
	}
	if r.CurrencyCode == "" {
		return fmt.Errorf("%w: missing currencyCode", ErrInvalidTokenInfo)
	}
	return nil
}

// Service adds and hides custom tokens.
type Service struct {
	registry Registry
}

func NewService(registry Registry) *Service {
	return &Service{registry: registry}
}

// Add validates req and registers the token under its parent currency.
// A hidden custom token with the same code is replaced.
func (s *Service) Add(req Request) (currency.Info, error) {
	req = req.Normalize()

	parent, err := s.registry.Info(req.ParentCode)
	if err != nil {
		return currency.Info{}, fmt.Errorf("looking up parent currency: %w", err)
	}
	if parent.CustomTokens == nil {
		return currency.Info{}, fmt.Errorf("%w: %s", ErrCustomTokensUnsupported, parent.CurrencyCode)
	}

	if existing, err := s.registry.Info(req.CurrencyCode); err == nil && !(existing.Custom && existing.Hidden) {
		return currency.Info{}, fmt.Errorf("%w: %s", ErrDuplicateCurrencyCode, req.CurrencyCode)
	}

	if err := Validate(*parent.CustomTokens, req); err != nil {
		return currency.Info{}, err
	}

	multiplier := "1"
	if req.DecimalPlaces != "" {
		if multiplier, err = currency.DecimalPlacesToDenomination(req.DecimalPlaces); err != nil {
			return currency.Info{}, fmt.Errorf("%w: %w", ErrInvalidTokenInfo, err)
		}
	}

	info := currency.Info{
		CurrencyCode:    req.CurrencyCode,
		DisplayName:     req.CurrencyName,
		ParentCode:      parent.CurrencyCode,
		ContractAddress: req.ContractAddress,
		Denominations:   []domain.Denomination{{Name: req.CurrencyCode, Multiplier: multiplier}},
		Custom:          true,
	}
	if err := s.registry.AddToken(info); err != nil {
		if errors.Is(err, currency.ErrCodeTaken) {
			return currency.Info{}, fmt.Errorf("%w: %s", ErrDuplicateCurrencyCode, info.CurrencyCode)
		}
		return currency.Info{}, err
	}

	slog.Info("custom token added", "code", info.CurrencyCode, "parent", info.ParentCode, "multiplier", multiplier)
	return info, nil
}

// Hide marks a custom token hidden so its code can be added again.
func (s *Service) Hide(code string) error {
	info, err := s.registry.Info(strings.ToUpper(code))
	if err != nil {
		return err
	}
	if !info.Custom {
		return fmt.Errorf("%w: %s is built in", ErrInvalidTokenInfo, info.CurrencyCode)
	}
	info.Hidden = true
	s.registry.Put(info)
	return nil
}
