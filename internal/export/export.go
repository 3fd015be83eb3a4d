package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/walletview/internal/domain"
)

// RateRow is one exported exchange-rate pair.
type RateRow struct {
	Key     string
	From    string
	To      string
	Rate    float64
	Updated time.Time
}

// Writer writes rate rows to a spreadsheet destination.
type Writer interface {
	Write(ctx context.Context, rows []RateRow) error
}

// HistoryAppender appends one row of tracked rates per export run.
type HistoryAppender interface {
	AppendHistory(ctx context.Context, rates domain.ExchangeRates, at time.Time) error
}

// Service builds rate rows and delegates writing to its writers.
type Service struct {
	writers []Writer
}

// NewService creates a new export Service.
func NewService(writers ...Writer) *Service {
	return &Service{writers: writers}
}

// Export writes rates to every writer. Writers that also append history do so
// after the main sheet is written. Implements worker.AfterRefreshHook.
func (s *Service) Export(ctx context.Context, rates domain.ExchangeRates, takenAt time.Time) error {
	rows := BuildRows(rates, takenAt)

	var errs []error
	for _, w := range s.writers {
		if err := w.Write(ctx, rows); err != nil {
			errs = append(errs, fmt.Errorf("writing %d rate rows: %w", len(rows), err))
			continue
		}
		if h, ok := w.(HistoryAppender); ok {
			if err := h.AppendHistory(ctx, rates, takenAt); err != nil {
				errs = append(errs, fmt.Errorf("appending rate history: %w", err))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("export: rates written", "rows", len(rows), "writers", len(s.writers))
	return nil
}

// BuildRows turns a rate table into rows sorted by key. Historical keys carry
// their own timestamp in Updated; all others use takenAt.
func BuildRows(rates domain.ExchangeRates, takenAt time.Time) []RateRow {
	keys := lo.Keys(rates)
	sort.Strings(keys)

	return lo.FilterMap(keys, func(key string, _ int) (RateRow, bool) {
		parts := strings.SplitN(key, "_", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			slog.Warn("export: skipping malformed rate key", "key", key)
			return RateRow{}, false
		}

		updated := takenAt.UTC()
		if len(parts) == 3 {
			at, err := time.Parse(time.RFC3339Nano, parts[2])
			if err != nil {
				slog.Warn("export: skipping rate key with bad timestamp", "key", key, "error", err)
				return RateRow{}, false
			}
			updated = at.UTC()
		}

		return RateRow{
			Key:     key,
			From:    parts[0],
			To:      parts[1],
			Rate:    rates[key],
			Updated: updated,
		}, true
	})
}
