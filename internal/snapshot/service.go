package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mtlprog/walletview/internal/domain"
)

// RateFetcher fetches a fresh exchange-rate table.
type RateFetcher interface {
	FetchRates(ctx context.Context, fiatCodes []string) (domain.ExchangeRates, error)
}

// Service manages rate snapshot generation and retrieval.
type Service struct {
	fetcher   RateFetcher
	repo      Repository
	fiatCodes []string
}

// NewService creates a new snapshot Service quoting crypto prices in fiatCodes (plus USD).
func NewService(fetcher RateFetcher, repo Repository, fiatCodes []string) *Service {
	return &Service{fetcher: fetcher, repo: repo, fiatCodes: fiatCodes}
}

// Generate fetches rates and stores them as the snapshot taken at at.
func (s *Service) Generate(ctx context.Context, at time.Time) (domain.ExchangeRates, error) {
	rates, err := s.fetcher.FetchRates(ctx, s.fiatCodes)
	if err != nil {
		return nil, fmt.Errorf("fetching rates: %w", err)
	}

	if err := s.repo.Save(ctx, at, rates); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	return rates, nil
}

// GetLatest retrieves the most recent snapshot.
func (s *Service) GetLatest(ctx context.Context) (*RateSnapshot, error) {
	return s.repo.GetLatest(ctx)
}

// List retrieves recent snapshots, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]RateSnapshot, error) {
	return s.repo.List(ctx, limit)
}

// Historical returns yesterday's USD rates relative to now, keyed with
// domain.HistoricalKey. A missing snapshot yields an empty table.
func (s *Service) Historical(ctx context.Context, now time.Time) (domain.ExchangeRates, error) {
	yesterday := domain.YesterdayHour(now)

	snap, err := s.repo.GetNearestBefore(ctx, yesterday)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Warn("no rate snapshot for 24h change", "before", yesterday)
			return domain.ExchangeRates{}, nil
		}
		return nil, fmt.Errorf("getting snapshot before %s: %w", yesterday.Format(time.RFC3339), err)
	}

	return HistoricalRates(snap.Rates, yesterday), nil
}

// HistoricalRates re-keys every "{code}_iso:USD" entry of rates as "{code}_iso:USD_{at}".
func HistoricalRates(rates domain.ExchangeRates, at time.Time) domain.ExchangeRates {
	suffix := "_" + domain.USDCode
	out := make(domain.ExchangeRates)
	for key, rate := range rates {
		code, ok := strings.CutSuffix(key, suffix)
		if !ok || code == "" || code == domain.USDCode {
			continue
		}
		out[domain.HistoricalKey(code, domain.USDCode, at)] = rate
	}
	return out
}
