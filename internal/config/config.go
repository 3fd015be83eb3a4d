package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletview/internal/currency"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPPort              string
	DatabaseURL           string
	CoinGeckoURL          string
	CoinGeckoDelay        time.Duration
	CoinGeckoRetryMax     int
	RateWorkerInterval    time.Duration
	RateCacheTTL          time.Duration
	FiatCodes             []string
	FeeColorThreshold     decimal.Decimal
	FeeAlertThreshold     decimal.Decimal
	AdminAPIKey           string
	GoogleSpreadsheetID   string
	GoogleCredentialsJSON string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		DatabaseURL:           envOrDefaultWarn("DATABASE_URL", ""),
		CoinGeckoURL:          envOrDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoDelay:        envOrDefaultDuration("COINGECKO_DELAY", 6*time.Second),
		CoinGeckoRetryMax:     envOrDefaultInt("COINGECKO_RETRY_MAX", 5),
		RateWorkerInterval:    envOrDefaultDuration("RATE_WORKER_INTERVAL", 1*time.Hour),
		RateCacheTTL:          envOrDefaultDuration("RATE_CACHE_TTL", 5*time.Minute),
		FiatCodes:             envOrDefaultList("FIAT_CODES", []string{"iso:USD", "iso:EUR"}),
		FeeColorThreshold:     envOrDefaultDecimal("FEE_COLOR_THRESHOLD", decimal.NewFromInt(2)),
		FeeAlertThreshold:     envOrDefaultDecimal("FEE_ALERT_THRESHOLD", decimal.NewFromInt(5)),
		AdminAPIKey:           envOrDefault("ADMIN_API_KEY", ""),
		GoogleSpreadsheetID:   envOrDefault("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

// SheetsEnabled reports whether Google Sheets export is configured.
func (c Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != "" && c.GoogleCredentialsJSON != ""
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			slog.Warn("invalid decimal env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

// envOrDefaultList reads a comma-separated list of fiat codes, normalized to "iso:XXX".
func envOrDefaultList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	codes := lo.Uniq(lo.FilterMap(strings.Split(v, ","), func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return currency.ToISO(strings.ToUpper(currency.StripISO(s))), s != ""
	}))
	if len(codes) == 0 {
		slog.Warn("empty list env var, using default", "key", key, "default", defaultVal)
		return defaultVal
	}
	return codes
}
