package bridge

import (
	"sync"
	"time"

	"github.com/cyp0633/calbridge/davclient"
	"github.com/samber/mo"
)

// discoveryCache is a TTL cache of discovery results keyed by
// (server, user). Entries carry their own expiry timestamp and are
// age-checked on read; refresh replaces an entry wholesale. Concurrent
// refreshes of one key are allowed to race, last writer wins.
type discoveryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	discovery *davclient.Discovery
	expiresAt time.Time
}

func newDiscoveryCache(ttl time.Duration) *discoveryCache {
	return &discoveryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *discoveryCache) get(key string) mo.Option[*davclient.Discovery] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		return mo.None[*davclient.Discovery]()
	}
	return mo.Some(entry.discovery)
}

func (c *discoveryCache) put(key string, discovery *davclient.Discovery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		discovery: discovery,
		expiresAt: c.now().Add(c.ttl),
	}
}
