package crypto

import (
	"crypto/sha256"
	"sync"

	"github.com/hengadev/cbcx/internal/security"
)

// DeriveKey hashes the UTF-8 bytes of secret into a 32-byte AES-256 key.
// The caller owns the returned slice and should wipe it after use.
func DeriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// KeyCache is a read-through cache of derived keys keyed by the secret value itself,
// so a rotated secret can never be served the key of its predecessor.
//
// The cache is bounded; once maxEntries distinct secrets have been seen it is emptied
// and refilled on demand.
type KeyCache struct {
	mu         sync.RWMutex
	entries    map[string][]byte
	maxEntries int
}

// NewKeyCache returns a cache holding at most maxEntries keys (minimum 1).
func NewKeyCache(maxEntries int) *KeyCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &KeyCache{
		entries:    make(map[string][]byte, maxEntries),
		maxEntries: maxEntries,
	}
}

// Key returns a copy of the derived key for secret, deriving and storing it on a miss.
// Callers may wipe the returned slice without affecting the cache.
func (c *KeyCache) Key(secret string) []byte {
	c.mu.RLock()
	if key, ok := c.entries[secret]; ok {
		out := security.SecureCopy(key)
		c.mu.RUnlock()
		return out
	}
	c.mu.RUnlock()

	derived := DeriveKey(secret)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[secret]; ok {
		return security.SecureCopy(existing)
	}
	if len(c.entries) >= c.maxEntries {
		for k, v := range c.entries {
			security.ZeroBytes(v)
			delete(c.entries, k)
		}
	}
	c.entries[secret] = derived
	return security.SecureCopy(derived)
}

// Len reports the number of cached keys.
func (c *KeyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
