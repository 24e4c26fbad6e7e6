package adapters

import (
	"context"
	"time"

	"fxhub/internal/domain"
)

// RateSource is one external price provider.
type RateSource interface {
	Name() string
	FetchRates(ctx context.Context) ([]domain.FetchedRate, error)
}

type SnapshotReader interface {
	LoadSnapshot(ctx context.Context) (domain.Snapshot, error)
}

type RateStore interface {
	SnapshotReader
	SaveSnapshot(ctx context.Context, pairs map[string]domain.SnapshotEntry, refresh time.Time) error
	LoadHistory(ctx context.Context) ([]domain.HistoryRecord, error)
	AppendHistory(ctx context.Context, records []domain.HistoryRecord) (int, error)
}

// SnapshotCache holds the last loaded snapshot for readers. Get returns the
// current generation even on a miss; Set stores only if no Invalidate has
// happened since that generation was observed.
type SnapshotCache interface {
	Get() (snapshot domain.Snapshot, generation uint64, ok bool)
	Set(snapshot domain.Snapshot, generation uint64) bool
	Invalidate()
}

// CycleLock guards update cycles against concurrent writers.
type CycleLock interface {
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

type HistoryPublisher interface {
	Publish(ctx context.Context, records []domain.HistoryRecord) error
}
