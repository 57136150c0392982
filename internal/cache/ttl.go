package cache

import (
	"sync"
	"time"
)

// TTL is a fixed-expiry cache for raw fetch results (search responses and
// scraped pages). It bounds staleness to MaxAge while avoiding redundant
// network calls for repeated identical requests within a short window.
// Expired entries are dropped lazily on read.
type TTL struct {
	MaxAge time.Duration

	mu  sync.Mutex
	m   map[string]ttlEntry
	now func() time.Time // test hook
}

type ttlEntry struct {
	value   []byte
	savedAt time.Time
}

// DefaultFetchTTL bounds staleness of cached fetches.
const DefaultFetchTTL = 5 * time.Minute

func NewTTL(maxAge time.Duration) *TTL {
	if maxAge <= 0 {
		maxAge = DefaultFetchTTL
	}
	return &TTL{MaxAge: maxAge, m: make(map[string]ttlEntry), now: time.Now}
}

func (c *TTL) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.savedAt) > c.MaxAge {
		delete(c.m, key)
		return nil, false
	}
	return e.value, true
}

func (c *TTL) Set(key string, value []byte) {
	c.mu.Lock()
	c.m[key] = ttlEntry{value: value, savedAt: c.now()}
	c.mu.Unlock()
}
