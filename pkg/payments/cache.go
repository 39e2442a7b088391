package payments

import (
	"strings"
	"sync"
)

// VerificationCache remembers payments already verified against chain
// state, keyed by transaction hash. Entries live for the process lifetime;
// the cache never evicts.
type VerificationCache struct {
	mu      sync.RWMutex
	entries map[string]Payment
}

// NewVerificationCache creates an empty cache.
func NewVerificationCache() *VerificationCache {
	return &VerificationCache{
		entries: make(map[string]Payment),
	}
}

// Add records a verified payment under its transaction hash.
func (c *VerificationCache) Add(p Payment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[normalizeTx(p.TxHash)] = p
}

// Get returns the cached payment for a transaction hash, if present.
func (c *VerificationCache) Get(txHash string) (Payment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[normalizeTx(txHash)]
	return p, ok
}

// Len returns the number of cached entries.
func (c *VerificationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func normalizeTx(tx string) string {
	return strings.ToLower(strings.TrimSpace(tx))
}
