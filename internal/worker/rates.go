package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/walletview/internal/domain"
)

// RateRefresher fetches, stores and caches a new exchange-rate table.
type RateRefresher interface {
	Refresh(ctx context.Context) (domain.ExchangeRates, error)
}

// AfterRefreshHook is called after each successful refresh.
type AfterRefreshHook interface {
	Export(ctx context.Context, rates domain.ExchangeRates, takenAt time.Time) error
}

// RateWorker periodically refreshes exchange rates.
type RateWorker struct {
	refresher RateRefresher
	interval  time.Duration
	hook      AfterRefreshHook // optional
}

// DefaultInterval replaces a non-positive refresh interval.
const DefaultInterval = time.Hour

// NewRateWorker creates a new RateWorker with an optional post-refresh hook.
func NewRateWorker(refresher RateRefresher, interval time.Duration, hook AfterRefreshHook) *RateWorker {
	if interval <= 0 {
		slog.Warn("RateWorker: non-positive interval, using default", "interval", interval, "default", DefaultInterval)
		interval = DefaultInterval
	}
	return &RateWorker{
		refresher: refresher,
		interval:  interval,
		hook:      hook,
	}
}

// Run starts the rate worker loop. It blocks until the context is cancelled.
func (w *RateWorker) Run(ctx context.Context) {
	slog.Info("RateWorker: starting", "interval", w.interval)

	// Refresh immediately on startup
	w.refresh(ctx, "initial refresh")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RateWorker: shutting down")
			return
		case <-ticker.C:
			w.refresh(ctx, "refresh")
		}
	}
}

func (w *RateWorker) refresh(ctx context.Context, what string) {
	rates, err := w.refresher.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("RateWorker: "+what+" failed", "error", err)
		}
		return
	}
	slog.Info("RateWorker: "+what+" completed", "pairs", len(rates))
	w.runHook(ctx, rates)
}

// runHook calls the post-refresh hook if one is configured.
func (w *RateWorker) runHook(ctx context.Context, rates domain.ExchangeRates) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, rates, time.Now().UTC()); err != nil {
		slog.Error("RateWorker: export hook failed", "error", err)
	} else {
		slog.Info("RateWorker: export hook completed")
	}
}
