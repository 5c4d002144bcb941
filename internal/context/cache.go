// Package context implements the four-tier hierarchical context engine of
// spec.md §4.5/§4.6: per-key inheritance merge grounded on
// original_source's domain/entities/context.py chain-merge semantics, and
// a two-tier resolved-context cache — github.com/patrickmn/go-cache for
// TTL bookkeeping, golang.org/x/sync/singleflight for the single-flight
// guarantee — using the maintained cache library rather than a
// hand-rolled mutex+TTL map, since §4.6
// requires dependency-hash invalidation and low-value eviction beyond what
// a plain TTL map gives for free.
package context

import (
	"context"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/denkhaus/conductor/internal/types"
)

const (
	// DefaultTTL is the §4.6 default resolved-context cache lifetime,
	// overridden by CONTEXT_CACHE_TTL_HOURS (see internal/config).
	DefaultTTL = time.Hour
	// PressureThreshold triggers the low-value eviction pass (§4.6
	// "Optimisation"). The engine always uses this constant;
	// Config.ContextCachePressureThreshold is read and validated but not
	// applied to the cache.
	PressureThreshold = 500
	maxEvictPerPass    = 50
	minHitCountToKeep  = 2
)

// Cache is the concrete types.CacheRepository backing the context engine:
// a go-cache store of *types.ContextInheritanceCache plus a singleflight
// group so concurrent misses for the same key resolve once (§4.6
// "Concurrency note").
type Cache struct {
	store *gocache.Cache
	sf    singleflight.Group
	ttl   time.Duration
	mu    sync.Mutex
}

var _ types.CacheRepository = (*Cache)(nil)

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: gocache.New(ttl, ttl/2), ttl: ttl}
}

func cacheKey(userID string, level types.ContextLevel, id uuid.UUID) string {
	return userID + "|" + string(level) + "|" + id.String()
}

func (c *Cache) Get(_ context.Context, userID string, level types.ContextLevel, id uuid.UUID) (*types.ContextInheritanceCache, bool) {
	v, ok := c.store.Get(cacheKey(userID, level, id))
	if !ok {
		return nil, false
	}
	entry := v.(*types.ContextInheritanceCache)
	if entry.Invalidated || time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	c.mu.Lock()
	entry.HitCount++
	entry.LastHit = time.Now()
	c.mu.Unlock()
	return entry, true
}

func (c *Cache) Put(_ context.Context, entry *types.ContextInheritanceCache) error {
	entry.ExpiresAt = time.Now().Add(c.ttl)
	c.store.Set(cacheKey(entry.UserID, entry.ContextLevel, entry.ContextID), entry, c.ttl)
	return nil
}

func (c *Cache) Invalidate(_ context.Context, userID string, level types.ContextLevel, id uuid.UUID, reason string) error {
	v, ok := c.store.Get(cacheKey(userID, level, id))
	if !ok {
		return nil
	}
	entry := v.(*types.ContextInheritanceCache)
	entry.Invalidated = true
	entry.InvalidationReason = reason
	return nil
}

// InvalidateDescendants invalidates every cached resolution whose
// ParentChain includes id, implementing the §4.6 cascade (global update
// invalidates all project/branch/task entries for the user, and so on).
func (c *Cache) InvalidateDescendants(_ context.Context, userID string, level types.ContextLevel, id uuid.UUID) error {
	for key, item := range c.store.Items() {
		entry := item.Object.(*types.ContextInheritanceCache)
		if entry.UserID != userID {
			continue
		}
		if containsID(entry.ParentChain, id) {
			entry.Invalidated = true
			entry.InvalidationReason = "ancestor " + string(level) + " " + id.String() + " updated"
			c.store.Set(key, entry, c.ttl)
		}
	}
	return nil
}

func (c *Cache) Sweep(_ context.Context) (int, error) {
	removed := 0
	now := time.Now()
	for key, item := range c.store.Items() {
		entry := item.Object.(*types.ContextInheritanceCache)
		if entry.Invalidated || now.After(entry.ExpiresAt) {
			c.store.Delete(key)
			removed++
		}
	}
	return removed, nil
}

func (c *Cache) Size(context.Context) (int, error) {
	return c.store.ItemCount(), nil
}

// EvictLowValue implements §4.6's low-value eviction pass: once the cache
// exceeds max entries, up to 50 entries with hit_count < 2 are evicted in
// ascending (hit_count, last_hit) order. go-cache has no LRU-by-hit-count
// sweep of its own, so the ranking is hand-rolled over Items().
func (c *Cache) EvictLowValue(_ context.Context, max int) (int, error) {
	items := c.store.Items()
	if len(items) <= max {
		return 0, nil
	}
	type candidate struct {
		key   string
		entry *types.ContextInheritanceCache
	}
	var eligible []candidate
	for key, item := range items {
		entry := item.Object.(*types.ContextInheritanceCache)
		if entry.HitCount < minHitCountToKeep {
			eligible = append(eligible, candidate{key, entry})
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].entry.HitCount != eligible[j].entry.HitCount {
			return eligible[i].entry.HitCount < eligible[j].entry.HitCount
		}
		return eligible[i].entry.LastHit.Before(eligible[j].entry.LastHit)
	})
	evicted := 0
	for _, c2 := range eligible {
		if evicted >= maxEvictPerPass {
			break
		}
		c.store.Delete(c2.key)
		evicted++
	}
	return evicted, nil
}

// SingleFlight runs fn at most once per concurrently-requested key.
func (c *Cache) SingleFlight(key string, fn func() (any, error)) (any, error) {
	v, err, _ := c.sf.Do(key, fn)
	return v, err
}

func containsID(list []uuid.UUID, id uuid.UUID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
