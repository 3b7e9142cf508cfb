// internal/pricing/cache.go
package pricing

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type cacheEntry struct {
	quote  PriceQuote
	expiry time.Time
}

// QuoteCache is a TTL cache of successful quotes keyed by
// (source, fromSymbol, toSymbol, amount). Expired entries are treated as
// absent and purged opportunistically on access.
type QuoteCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	logger  *zap.Logger

	now func() time.Time // overridable in tests
}

// NewQuoteCache creates an empty quote cache.
func NewQuoteCache(logger *zap.Logger) *QuoteCache {
	return &QuoteCache{
		entries: make(map[string]cacheEntry),
		logger:  logger.Named("quote_cache"),
		now:     time.Now,
	}
}

func cacheKey(source string, pair TokenPair) string {
	return fmt.Sprintf("%s:%s:%s:%s", source, pair.FromSymbol, pair.ToSymbol, pair.Amount.String())
}

// Get returns a live cached quote with a refreshed timestamp, or nil.
func (c *QuoteCache) Get(source string, pair TokenPair, amount decimal.Decimal) *PriceQuote {
	key := cacheKey(source, pair)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil
	}
	if c.now().After(entry.expiry) {
		c.mu.Lock()
		// Recheck under the write lock; another goroutine may have
		// refreshed the entry since the read.
		if current, still := c.entries[key]; still && c.now().After(current.expiry) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil
	}

	quote := entry.quote
	quote.Timestamp = c.now()

	c.logger.Debug("cache hit",
		zap.String("source", source),
		zap.String("pair", pair.Key()),
		zap.String("amount", amount.String()))
	return &quote
}

// Put stores a successful quote with expiry now+ttl. Failed quotes are
// never cached.
func (c *QuoteCache) Put(source string, pair TokenPair, quote PriceQuote, ttl time.Duration) {
	if quote.Failed() {
		return
	}

	key := cacheKey(source, pair)

	c.mu.Lock()
	c.entries[key] = cacheEntry{quote: quote, expiry: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Purge drops every expired entry and returns the number removed.
func (c *QuoteCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := c.now()
	for key, entry := range c.entries {
		if cutoff.After(entry.expiry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, live or expired.
func (c *QuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
