// Package cache keeps recently read token prices so repeated listings do
// not hit the chain for every creator.
package cache

import (
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultStaleness is how long a price is trusted.
const DefaultStaleness = 5 * time.Minute

// PriceCache stores token prices keyed by chain and token address.
type PriceCache struct {
	mu      sync.RWMutex          `json:"-"`
	Entries map[string]PriceEntry `json:"entries"`
}

// PriceEntry is one cached price.
type PriceEntry struct {
	ChainID   uint64         `json:"chain_id"`
	Token     common.Address `json:"token"`
	PriceWei  string         `json:"price_wei"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Price returns the cached price as a big.Int.
func (e PriceEntry) Price() (*big.Int, bool) {
	return new(big.Int).SetString(e.PriceWei, 10)
}

// NewPriceCache creates an empty cache.
func NewPriceCache() *PriceCache {
	return &PriceCache{Entries: make(map[string]PriceEntry)}
}

// Key builds the cache key for a token on a chain.
func Key(chainID uint64, token common.Address) string {
	return strconv.FormatUint(chainID, 10) + ":" + strings.ToLower(token.Hex())
}

// Get returns the entry for token and its age.
func (c *PriceCache) Get(chainID uint64, token common.Address) (PriceEntry, bool, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.Entries[Key(chainID, token)]
	if !ok {
		return PriceEntry{}, false, 0
	}
	return entry, true, time.Since(entry.UpdatedAt)
}

// Fresh returns the price for token if it is younger than staleness.
func (c *PriceCache) Fresh(chainID uint64, token common.Address, staleness time.Duration) (*big.Int, bool) {
	entry, ok, age := c.Get(chainID, token)
	if !ok || age > staleness {
		return nil, false
	}
	return entry.Price()
}

// Set stores a price, stamping it with the current time.
func (c *PriceCache) Set(chainID uint64, token common.Address, price *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Entries[Key(chainID, token)] = PriceEntry{
		ChainID:   chainID,
		Token:     token,
		PriceWei:  price.String(),
		UpdatedAt: time.Now(),
	}
}

// Delete removes the entry for token.
func (c *PriceCache) Delete(chainID uint64, token common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Entries, Key(chainID, token))
}

// Clear removes all entries.
func (c *PriceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries = make(map[string]PriceEntry)
}

// Size returns the number of entries.
func (c *PriceCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Entries)
}

// Prune removes entries older than maxAge and returns how many it removed.
func (c *PriceCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for key, entry := range c.Entries {
		if entry.UpdatedAt.Before(cutoff) {
			delete(c.Entries, key)
			removed++
		}
	}
	return removed
}
