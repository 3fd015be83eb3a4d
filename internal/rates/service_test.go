package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mtlprog/walletview/internal/domain"
	"github.com/mtlprog/walletview/internal/snapshot"
)

var testNow = time.Date(2026, 10, 15, 10, 42, 0, 0, time.UTC)

type mockSnapshots struct {
	generated     domain.ExchangeRates
	generateErr   error
	generateCalls int
	generatedAt   time.Time
	latest        *snapshot.RateSnapshot
	latestErr     error
	historical    domain.ExchangeRates
	historicalErr error
	histCalls     int
	list          []snapshot.RateSnapshot
	listErr       error
}

func (m *mockSnapshots) Generate(_ context.Context, at time.Time) (domain.ExchangeRates, error) {
	m.generateCalls++
	m.generatedAt = at
	return m.generated, m.generateErr
}

func (m *mockSnapshots) GetLatest(_ context.Context) (*snapshot.RateSnapshot, error) {
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	return m.latest, nil
}

func (m *mockSnapshots) Historical(_ context.Context, _ time.Time) (domain.ExchangeRates, error) {
	m.histCalls++
	return m.historical, m.historicalErr
}

func (m *mockSnapshots) List(_ context.Context, _ int) ([]snapshot.RateSnapshot, error) {
	return m.list, m.listErr
}

func newTestService(m *mockSnapshots) *Service {
	s := NewService(m, time.Minute)
	s.now = func() time.Time { return testNow }
	return s
}

func TestRefreshTruncatesToHourAndCaches(t *testing.T) {
	m := &mockSnapshots{generated: domain.ExchangeRates{"BTC_iso:USD": 50000}, latestErr: snapshot.ErrNotFound}
	s := newTestService(m)

	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if want := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC); !m.generatedAt.Equal(want) {
		t.Errorf("generated at %v, want %v", m.generatedAt, want)
	}

	if _, err := s.Current(context.Background()); err != nil {
		t.Fatalf("Current: %v", err)
	}
	if m.generateCalls != 1 {
		t.Errorf("Generate called %d times, want 1 (cached)", m.generateCalls)
	}
}

func TestCurrentUsesFreshSnapshot(t *testing.T) {
	m := &mockSnapshots{
		latest: &snapshot.RateSnapshot{TakenAt: testNow.Add(-30 * time.Minute), Rates: domain.ExchangeRates{"BTC_iso:USD": 51000}},
		historical: domain.ExchangeRates{
			domain.HistoricalKey("BTC", domain.USDCode, domain.YesterdayHour(testNow)): 49000,
		},
	}
	s := newTestService(m)

	rates, err := s.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if m.generateCalls != 0 {
		t.Error("fresh snapshot should not trigger a fetch")
	}
	if rates["BTC_iso:USD"] != 51000 {
		t.Errorf("BTC_iso:USD = %v", rates["BTC_iso:USD"])
	}
	if rates["BTC_iso:USD_2026-10-14T10:00:00.000Z"] != 49000 {
		t.Errorf("historical key missing: %v", rates)
	}

	if _, err := s.Current(context.Background()); err != nil {
		t.Fatalf("Current: %v", err)
	}
	if m.histCalls != 1 {
		t.Errorf("Historical called %d times, want 1 (cached)", m.histCalls)
	}
}

func TestCurrentRefreshesStaleSnapshot(t *testing.T) {
	m := &mockSnapshots{
		latest:    &snapshot.RateSnapshot{TakenAt: testNow.Add(-5 * time.Hour), Rates: domain.ExchangeRates{"BTC_iso:USD": 1}},
		generated: domain.ExchangeRates{"BTC_iso:USD": 52000},
	}
	s := newTestService(m)

	rates, err := s.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if rates["BTC_iso:USD"] != 52000 {
		t.Errorf("BTC_iso:USD = %v, want refreshed 52000", rates["BTC_iso:USD"])
	}
}

func TestCurrentFallsBackToStaleSnapshot(t *testing.T) {
	m := &mockSnapshots{
		latest:      &snapshot.RateSnapshot{TakenAt: testNow.Add(-5 * time.Hour), Rates: domain.ExchangeRates{"BTC_iso:USD": 47000}},
		generateErr: errors.New("coingecko down"),
	}
	s := newTestService(m)

	rates, err := s.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if rates["BTC_iso:USD"] != 47000 {
		t.Errorf("BTC_iso:USD = %v, want stale 47000", rates["BTC_iso:USD"])
	}
}

func TestCurrentNoDataAtAll(t *testing.T) {
	m := &mockSnapshots{latestErr: snapshot.ErrNotFound, generateErr: errors.New("coingecko down")}
	s := newTestService(m)

	if _, err := s.Current(context.Background()); err == nil {
		t.Fatal("expected error without snapshot or fetch")
	}
}

func TestCurrentWithoutHistory(t *testing.T) {
	m := &mockSnapshots{
		latest:        &snapshot.RateSnapshot{TakenAt: testNow, Rates: domain.ExchangeRates{"BTC_iso:USD": 50000}},
		historicalErr: errors.New("db down"),
	}
	s := newTestService(m)

	rates, err := s.Current(context.Background())
	if err != nil {
		t.Fatalf("history failure should degrade: %v", err)
	}
	if len(rates) != 1 {
		t.Errorf("rates = %v", rates)
	}
}

func TestCacheExpiry(t *testing.T) {
	now := testNow
	c := newRateCache(time.Minute, func() time.Time { return now })

	c.set(currentKey, domain.ExchangeRates{"BTC_iso:USD": 1})
	if _, ok := c.get(currentKey); !ok {
		t.Fatal("expected cache hit")
	}
	if _, ok := c.get("missing-key"); ok {
		t.Error("expected cache miss for missing key")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.get(currentKey); ok {
		t.Error("expected cache miss for expired entry")
	}
}

func TestHistoryKey(t *testing.T) {
	if got := historyKey(time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)); got != "history:2026-10-14T10" {
		t.Errorf("historyKey() = %q", got)
	}
}

func TestHistory(t *testing.T) {
	m := &mockSnapshots{list: []snapshot.RateSnapshot{{ID: 1}}}
	list, err := newTestService(m).History(context.Background(), 10)
	if err != nil || len(list) != 1 {
		t.Errorf("History() = %v, %v", list, err)
	}

	m.listErr = errors.New("db down")
	if _, err := newTestService(m).History(context.Background(), 10); err == nil {
		t.Error("expected error")
	}
}
