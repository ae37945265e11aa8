package resolve

import (
	"sync"
	"time"
)

// CacheTTL is how long a resolved URL stays valid. An entry older than this
// is treated as absent and lazily evicted on the next lookup.
const CacheTTL = 30 * time.Minute

type cacheEntry struct {
	url       string
	createdAt time.Time
}

// urlCache is the per-item resolved-URL cache. It is shared by all
// resolution calls of the process and safe for concurrent use.
type urlCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newURLCache(ttl time.Duration) *urlCache {
	return &urlCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached URL for key, evicting it first when expired
func (c *urlCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		return "", false
	}
	return entry.url, true
}

// Put stores url under key with the current timestamp
func (c *urlCache) Put(key, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{url: url, createdAt: c.now()}
}

// Sweep removes every expired entry in one pass
func (c *urlCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now()
	for key, entry := range c.entries {
		if cutoff.Sub(entry.createdAt) > c.ttl {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of entries, expired ones included
func (c *urlCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// attemptCounters tracks how many resolution attempts ran per item.
// Counters are shared process-wide but read per logical resolution call.
type attemptCounters struct {
	mu     sync.Mutex
	counts map[string]int
}

func newAttemptCounters() *attemptCounters {
	return &attemptCounters{counts: make(map[string]int)}
}

// Inc increments and returns the counter for key
func (a *attemptCounters) Inc(key string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[key]++
	return a.counts[key]
}

// Get returns the current counter for key
func (a *attemptCounters) Get(key string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[key]
}
