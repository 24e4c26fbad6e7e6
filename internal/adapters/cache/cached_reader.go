package cache

import (
	"context"

	"fxhub/internal/adapters"
	"fxhub/internal/domain"
)

var _ adapters.SnapshotReader = (*CachedSnapshotReader)(nil)

// CachedSnapshotReader serves LoadSnapshot from the cache and falls back to
// the underlying reader on a miss.
type CachedSnapshotReader struct {
	next  adapters.SnapshotReader
	cache adapters.SnapshotCache
}

func NewCachedSnapshotReader(next adapters.SnapshotReader, cache adapters.SnapshotCache) *CachedSnapshotReader {
	return &CachedSnapshotReader{next: next, cache: cache}
}

func (r *CachedSnapshotReader) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	snap, generation, ok := r.cache.Get()
	if ok {
		return snap, nil
	}
	snap, err := r.next.LoadSnapshot(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	r.cache.Set(snap, generation)
	return snap, nil
}
