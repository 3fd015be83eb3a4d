package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/walletview/internal/currency"
	"github.com/mtlprog/walletview/internal/domain"
)

// ErrNoPrices is returned when CoinGecko knows none of the requested coins.
var ErrNoPrices = errors.New("CoinGecko returned no prices")

// SymbolMapping maps currency codes to CoinGecko IDs.
var SymbolMapping = map[string]string{
	"BTC":  "bitcoin",
	"BCH":  "bitcoin-cash",
	"LTC":  "litecoin",
	"ETH":  "ethereum",
	"ETC":  "ethereum-classic",
	"XLM":  "stellar",
	"XRP":  "ripple",
	"EOS":  "eos",
	"FIO":  "fio-protocol",
	"XTZ":  "tezos",
	"USDT": "tether",
	"USDC": "usd-coin",
	"DAI":  "dai",
}

// fiatReference is the coin used to derive iso:USD -> fiat cross rates.
const fiatReference = "bitcoin"

// CoinGeckoClient fetches prices from the CoinGecko API.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewCoinGeckoClient creates a new CoinGecko API client.
func NewCoinGeckoClient(baseURL string, delay time.Duration, maxRetries int) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

// FetchRates fetches prices of every mapped currency in USD and each of
// fiatCodes ("EUR" or "iso:EUR"). Keys are "{code}_iso:{FIAT}", plus
// "iso:USD_iso:{FIAT}" cross rates derived from the reference coin.
func (c *CoinGeckoClient) FetchRates(ctx context.Context, fiatCodes []string) (domain.ExchangeRates, error) {
	ids := lo.Uniq(lo.Values(SymbolMapping))
	sort.Strings(ids)

	fiats := lo.Uniq(append([]string{"USD"}, lo.Map(fiatCodes, func(code string, _ int) string {
		return strings.ToUpper(currency.StripISO(code))
	})...))
	vs := lo.Map(fiats, func(f string, _ int) string { return strings.ToLower(f) })

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", strings.Join(vs, ","))
	body, err := c.fetchWithRetry(ctx, c.baseURL+"/simple/price?"+q.Encode())
	if err != nil {
		return nil, err
	}

	// {"bitcoin":{"usd":45000,"eur":41000},...}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing CoinGecko response: %w", err)
	}

	rates := make(domain.ExchangeRates)
	for code, coinID := range SymbolMapping {
		prices, ok := raw[coinID]
		if !ok {
			continue
		}
		for _, fiat := range fiats {
			if p := prices[strings.ToLower(fiat)]; p > 0 {
				rates[domain.RateKey(code, currency.ToISO(fiat))] = p
			}
		}
	}
	if len(rates) == 0 {
		return nil, ErrNoPrices
	}

	if ref, ok := raw[fiatReference]; ok && ref["usd"] > 0 {
		for _, fiat := range fiats {
			if fiat == "USD" {
				continue
			}
			if p := ref[strings.ToLower(fiat)]; p > 0 {
				rates[domain.RateKey(domain.USDCode, currency.ToISO(fiat))] = p / ref["usd"]
			}
		}
	}

	return rates, nil
}

func (c *CoinGeckoClient) fetchWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.delay
			if baseDelay == 0 {
				baseDelay = 10 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("creating CoinGecko request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("CoinGecko request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading CoinGecko response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("CoinGecko rate limited (attempt %d/%d)", attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("CoinGecko HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
