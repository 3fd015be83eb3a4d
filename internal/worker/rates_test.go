package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mtlprog/walletview/internal/domain"
)

type mockRefresher struct {
	callCount atomic.Int32
	err       error
}

func (m *mockRefresher) Refresh(_ context.Context) (domain.ExchangeRates, error) {
	m.callCount.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return domain.ExchangeRates{"BTC_iso:USD": 50000}, nil
}

type mockHook struct {
	callCount atomic.Int32
	lastPairs atomic.Int32
	err       error
}

func (m *mockHook) Export(_ context.Context, rates domain.ExchangeRates, _ time.Time) error {
	m.callCount.Add(1)
	m.lastPairs.Store(int32(len(rates)))
	return m.err
}

func TestRateWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockRefresher{}
	w := NewRateWorker(mock, 50*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	// Should have run at least the initial refresh + some ticks
	if got := mock.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want >= 2", got)
	}
}

func TestRateWorkerCallsHook(t *testing.T) {
	hook := &mockHook{}
	w := NewRateWorker(&mockRefresher{}, time.Hour, hook)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := hook.callCount.Load(); got != 1 {
		t.Errorf("hook calls = %d, want 1", got)
	}
	if got := hook.lastPairs.Load(); got != 1 {
		t.Errorf("hook saw %d pairs, want 1", got)
	}
}

func TestRateWorkerSkipsHookOnError(t *testing.T) {
	hook := &mockHook{}
	refresher := &mockRefresher{err: errors.New("coingecko down")}
	w := NewRateWorker(refresher, time.Hour, hook)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if refresher.callCount.Load() != 1 {
		t.Errorf("refresh calls = %d, want 1", refresher.callCount.Load())
	}
	if hook.callCount.Load() != 0 {
		t.Error("hook should not run after a failed refresh")
	}
}

func TestRateWorkerHookErrorDoesNotStop(t *testing.T) {
	hook := &mockHook{err: errors.New("sheets down")}
	refresher := &mockRefresher{}
	w := NewRateWorker(refresher, 20*time.Millisecond, hook)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if refresher.callCount.Load() < 2 {
		t.Errorf("refresh calls = %d, want >= 2", refresher.callCount.Load())
	}
}

func TestRateWorkerNonPositiveInterval(t *testing.T) {
	mock := &mockRefresher{}
	w := NewRateWorker(mock, 0, nil)
	if w.interval != DefaultInterval {
		t.Fatalf("interval = %v, want %v", w.interval, DefaultInterval)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := mock.callCount.Load(); got != 1 {
		t.Errorf("call count = %d, want 1", got)
	}
}
