package cache

import (
	"fmt"
	"sync"
	"time"

	"fxhub/internal/adapters"
	"fxhub/internal/domain"

	"github.com/dgraph-io/ristretto"
)

const snapshotKey = "snapshot"

var _ adapters.SnapshotCache = (*RistrettoSnapshotCache)(nil)

// RistrettoSnapshotCache keeps the last decoded snapshot in memory so readers
// don't hit the disk on every lookup. Entries expire after ttl even without
// an explicit invalidation, which covers writes by other processes.
type RistrettoSnapshotCache struct {
	cache *ristretto.Cache
	ttl   time.Duration

	mu         sync.RWMutex
	generation uint64 // bumped by Invalidate
}

func NewSnapshotCache(maxItems int64, ttl time.Duration) (*RistrettoSnapshotCache, error) {
	if maxItems <= 0 {
		maxItems = 64
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache failed: %w", err)
	}
	return &RistrettoSnapshotCache{cache: c, ttl: ttl}, nil
}

func (c *RistrettoSnapshotCache) Get() (domain.Snapshot, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.cache.Get(snapshotKey); ok {
		snap, ok := v.(domain.Snapshot)
		return snap, c.generation, ok
	}
	return domain.Snapshot{}, c.generation, false
}

// Set drops the snapshot when the cache was invalidated after generation was
// read, so a load racing with a write never caches the older file.
func (c *RistrettoSnapshotCache) Set(snapshot domain.Snapshot, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false
	}
	if c.ttl > 0 {
		c.cache.SetWithTTL(snapshotKey, snapshot, 1, c.ttl)
	} else {
		c.cache.Set(snapshotKey, snapshot, 1)
	}
	c.cache.Wait()
	return true
}

func (c *RistrettoSnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.cache.Del(snapshotKey)
}

func (c *RistrettoSnapshotCache) Close() { c.cache.Close() }
