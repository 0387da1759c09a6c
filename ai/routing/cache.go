package routing

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/czapol/multi-agent-playground/ai/cache"
	"github.com/czapol/multi-agent-playground/ai/internal/strutil"
)

// CacheObserver receives cache hit/miss events, e.g. a metrics exporter.
type CacheObserver interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// RouterCache memoizes decisions of the pure routing functions.
// Keys cover everything a decision depends on, so a hit returns exactly
// what recomputation would.
type RouterCache struct {
	lru      *cache.LRUCache[string, Decision]
	ttl      time.Duration
	observer CacheObserver
}

// CacheConfig configures a RouterCache.
type CacheConfig struct {
	Capacity int           // default: 500
	TTL      time.Duration // default: 10min
	Observer CacheObserver // optional
}

// NewRouterCache creates a router cache.
func NewRouterCache(cfg CacheConfig) *RouterCache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 500
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &RouterCache{
		lru:      cache.NewLRUCache[string, Decision](cfg.Capacity, cfg.TTL),
		ttl:      cfg.TTL,
		observer: cfg.Observer,
	}
}

// Get returns the cached decision for (router, normalized query, context key).
// The context key must encode every context fact the router reads.
func (c *RouterCache) Get(by DecidedBy, normalized, contextKey string) (Decision, bool) {
	if c == nil {
		return Decision{}, false
	}
	d, ok := c.lru.Get(hashKey(by, normalized, contextKey))
	if c.observer != nil {
		if ok {
			c.observer.RecordCacheHit(string(by))
		} else {
			c.observer.RecordCacheMiss(string(by))
		}
	}
	if ok {
		slog.Debug("router cache hit", "router", by, "input", strutil.Truncate(normalized, 50), "target", d.Target)
	}
	return d, ok
}

// Set stores a decision.
func (c *RouterCache) Set(by DecidedBy, normalized, contextKey string, d Decision) {
	if c == nil {
		return
	}
	c.lru.Set(hashKey(by, normalized, contextKey), d, c.ttl)
}

// Stats returns the underlying cache statistics.
func (c *RouterCache) Stats() cache.Stats {
	return c.lru.Stats()
}

// Clear removes all entries.
func (c *RouterCache) Clear() {
	c.lru.Clear()
}

func hashKey(by DecidedBy, normalized, contextKey string) string {
	hash := sha256.Sum256([]byte(string(by) + "\x00" + contextKey + "\x00" + normalized))
	return "route:" + hex.EncodeToString(hash[:12])
}
