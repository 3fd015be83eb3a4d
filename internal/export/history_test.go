package export

import (
	"testing"
	"time"

	"github.com/mtlprog/walletview/internal/domain"
)

func TestBuildHistoryRows(t *testing.T) {
	at := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	rates := domain.ExchangeRates{
		"BTC_iso:USD":     50000,
		"ETH_iso:USD":     3000,
		"iso:USD_iso:EUR": 0.8,
		"DOGE_iso:USD":    0.1,
	}

	header, data := buildHistoryRows(rates, at)

	if len(header) != 1+len(historyPairs) || len(data) != len(header) {
		t.Fatalf("header has %d columns, data %d, want %d", len(header), len(data), 1+len(historyPairs))
	}
	if header[0] != "Time" || header[1] != "BTC_iso:USD" {
		t.Errorf("header = %v", header)
	}
	if data[0] != "2026-10-15 10:00" {
		t.Errorf("data[0] = %v", data[0])
	}
	if data[1] != 50000.0 || data[2] != 3000.0 {
		t.Errorf("data = %v", data)
	}
	if data[3] != nil {
		t.Errorf("missing BCH should be blank, got %v", data[3])
	}
	if data[len(data)-1] != 0.8 {
		t.Errorf("cross rate = %v, want 0.8", data[len(data)-1])
	}
}

func TestBuildRatesSheet(t *testing.T) {
	rows := []RateRow{{Key: "BTC_iso:USD", From: "BTC", To: "iso:USD", Rate: 50000, Updated: takenAt}}

	data := buildRatesSheet(rows)

	if len(data) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(data))
	}
	if data[0][0] != "Key" || data[0][4] != "Updated" {
		t.Errorf("header = %v", data[0])
	}
	if data[1][3] != 50000.0 || data[1][4] != "2026-10-15T10:00:00Z" {
		t.Errorf("row = %v", data[1])
	}
}
