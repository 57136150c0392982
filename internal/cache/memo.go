package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
)

// KeyFrom builds a deterministic cache key from the operation parameters
// that affect output. Parts are joined with a separator that cannot occur
// inside a single part boundary ambiguity-free thanks to the digest.
func KeyFrom(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:])
}

// Memo is a process-lifetime memoization cache for validated LLM results.
// It is constructed once per service lifetime and passed to the components
// that need it; there is no package-level instance. Lookups are exact-match
// only and entries never expire or get evicted.
//
// Concurrent use is safe. Duplicate concurrent computation of the same key
// is acceptable; the last write wins and readers always observe a complete
// value.
type Memo struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemo() *Memo {
	return &Memo{m: make(map[string]string)}
}

func (c *Memo) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *Memo) Set(key, value string) {
	c.mu.Lock()
	c.m[key] = value
	c.mu.Unlock()
}

// Len reports the number of stored entries.
func (c *Memo) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
