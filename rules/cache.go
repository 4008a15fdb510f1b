package rules

import (
	"sync"
	"time"
)

// RulesCache caches the enabled-rule snapshot between evaluations so the
// engine does not hit the store on every call.
type RulesCache interface {
	// Get returns the cached snapshot, or nil on miss/expiry.
	Get() []*Rule

	// Set stores a snapshot.
	Set(ruleSet []*Rule)

	// Invalidate clears the cache, forcing a refresh on the next Get.
	Invalidate()
}

// CacheConfig controls snapshot expiry.
type CacheConfig struct {
	// TTL for cached entries; 0 means manual invalidation only.
	TTL time.Duration
}

// DefaultCacheConfig invalidates only on rule mutations, which is right for
// a rule table that is effectively static at runtime.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 0}
}

type rulesCache struct {
	ruleSet  []*Rule
	cachedAt time.Time
	valid    bool
	config   CacheConfig
	mu       sync.RWMutex
}

// NewRulesCache creates an in-memory RulesCache.
func NewRulesCache(config CacheConfig) RulesCache {
	return &rulesCache{config: config}
}

func (c *rulesCache) Get() []*Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid {
		return nil
	}
	if c.config.TTL > 0 && time.Since(c.cachedAt) > c.config.TTL {
		return nil
	}

	// Copy so callers cannot reorder the snapshot under us.
	snapshot := make([]*Rule, len(c.ruleSet))
	copy(snapshot, c.ruleSet)
	return snapshot
}

func (c *rulesCache) Set(ruleSet []*Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ruleSet = make([]*Rule, len(ruleSet))
	copy(c.ruleSet, ruleSet)
	c.cachedAt = time.Now()
	c.valid = true
}

func (c *rulesCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.ruleSet = nil
}
