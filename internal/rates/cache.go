package rates

import (
	"sync"
	"time"

	"github.com/mtlprog/walletview/internal/domain"
)

const currentKey = "current"

type cacheEntry struct {
	rates     domain.ExchangeRates
	expiresAt time.Time
}

type rateCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newRateCache(ttl time.Duration, now func() time.Time) *rateCache {
	return &rateCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// historyKey formats: "history:{hour}" e.g. "history:2026-10-14T10"
func historyKey(at time.Time) string {
	return "history:" + at.UTC().Format("2006-01-02T15")
}

func (c *rateCache) get(key string) (domain.ExchangeRates, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.rates, true
}

func (c *rateCache) set(key string, rates domain.ExchangeRates) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		rates:     rates,
		expiresAt: c.now().Add(c.ttl),
	}
}
