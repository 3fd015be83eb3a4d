// Package rates serves the exchange-rate table the display conversions read.
package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/walletview/internal/domain"
	"github.com/mtlprog/walletview/internal/snapshot"
)

// DefaultTTL is how long a rate table is served from memory.
const DefaultTTL = 5 * time.Minute

// maxSnapshotAge is the age after which a stored snapshot triggers a fetch.
const maxSnapshotAge = 2 * time.Hour

// Snapshots is the rate snapshot store.
type Snapshots interface {
	Generate(ctx context.Context, at time.Time) (domain.ExchangeRates, error)
	GetLatest(ctx context.Context) (*snapshot.RateSnapshot, error)
	Historical(ctx context.Context, now time.Time) (domain.ExchangeRates, error)
	List(ctx context.Context, limit int) ([]snapshot.RateSnapshot, error)
}

// Service caches current and historical rate tables.
type Service struct {
	snapshots Snapshots
	cache     *rateCache
	now       func() time.Time
}

// NewService creates a Service. A non-positive ttl uses DefaultTTL.
func NewService(snapshots Snapshots, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{snapshots: snapshots, now: time.Now}
	s.cache = newRateCache(ttl, func() time.Time { return s.now() })
	return s
}

// Refresh fetches and stores a new hourly snapshot and caches it.
func (s *Service) Refresh(ctx context.Context) (domain.ExchangeRates, error) {
	at := s.now().UTC().Truncate(time.Hour)
	rates, err := s.snapshots.Generate(ctx, at)
	if err != nil {
		return nil, fmt.Errorf("refreshing rates: %w", err)
	}
	s.cache.set(currentKey, rates)
	slog.Info("exchange rates refreshed", "pairs", len(rates), "takenAt", at)
	return rates, nil
}

// Current returns the current rate table merged with yesterday's USD rates.
// It reads from the cache, then the latest stored snapshot, and fetches only
// when neither is fresh.
func (s *Service) Current(ctx context.Context) (domain.ExchangeRates, error) {
	current, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	historical, err := s.historical(ctx)
	if err != nil {
		slog.Warn("serving rates without 24h history", "error", err)
		return current, nil
	}
	return current.Merge(historical), nil
}

// History returns recent snapshots, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]snapshot.RateSnapshot, error) {
	list, err := s.snapshots.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing rate history: %w", err)
	}
	return list, nil
}

func (s *Service) current(ctx context.Context) (domain.ExchangeRates, error) {
	if cached, ok := s.cache.get(currentKey); ok {
		return cached, nil
	}

	latest, err := s.snapshots.GetLatest(ctx)
	switch {
	case err == nil && s.now().Sub(latest.TakenAt) <= maxSnapshotAge:
		s.cache.set(currentKey, latest.Rates)
		return latest.Rates, nil
	case err != nil && !errors.Is(err, snapshot.ErrNotFound):
		slog.Warn("reading latest rate snapshot", "error", err)
	}

	rates, refreshErr := s.Refresh(ctx)
	if refreshErr == nil {
		return rates, nil
	}
	if err == nil {
		slog.Warn("serving stale rate snapshot", "takenAt", latest.TakenAt, "error", refreshErr)
		return latest.Rates, nil
	}
	return nil, refreshErr
}

func (s *Service) historical(ctx context.Context) (domain.ExchangeRates, error) {
	now := s.now()
	key := historyKey(domain.YesterdayHour(now))
	if cached, ok := s.cache.get(key); ok {
		return cached, nil
	}

	rates, err := s.snapshots.Historical(ctx, now)
	if err != nil {
		return nil, err
	}
	s.cache.set(key, rates)
	return rates, nil
}
