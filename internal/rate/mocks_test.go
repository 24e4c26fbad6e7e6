package rate

import (
	"context"
	"time"

	"fxhub/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockRateSource struct {
	mock.Mock
	name string
}

func newMockSource(name string) *MockRateSource { return &MockRateSource{name: name} }

func (m *MockRateSource) Name() string { return m.name }

func (m *MockRateSource) FetchRates(ctx context.Context) ([]domain.FetchedRate, error) {
	args := m.Called(ctx)
	rates, _ := args.Get(0).([]domain.FetchedRate)
	return rates, args.Error(1)
}

type MockRateStore struct{ mock.Mock }

func (m *MockRateStore) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(domain.Snapshot)
	return snap, args.Error(1)
}

func (m *MockRateStore) SaveSnapshot(ctx context.Context, pairs map[string]domain.SnapshotEntry, refresh time.Time) error {
	args := m.Called(ctx, pairs, refresh)
	return args.Error(0)
}

func (m *MockRateStore) LoadHistory(ctx context.Context) ([]domain.HistoryRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]domain.HistoryRecord)
	return records, args.Error(1)
}

func (m *MockRateStore) AppendHistory(ctx context.Context, records []domain.HistoryRecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

type MockCycleLock struct{ mock.Mock }

func (m *MockCycleLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	args := m.Called(ctx)
	release, _ := args.Get(0).(func())
	return release, args.Bool(1), args.Error(2)
}

type MockSnapshotCache struct{ mock.Mock }

func (m *MockSnapshotCache) Get() (domain.Snapshot, uint64, bool) {
	args := m.Called()
	snap, _ := args.Get(0).(domain.Snapshot)
	gen, _ := args.Get(1).(uint64)
	return snap, gen, args.Bool(2)
}

func (m *MockSnapshotCache) Set(snapshot domain.Snapshot, generation uint64) bool {
	return m.Called(snapshot, generation).Bool(0)
}

func (m *MockSnapshotCache) Invalidate() { m.Called() }

type MockHistoryPublisher struct{ mock.Mock }

func (m *MockHistoryPublisher) Publish(ctx context.Context, records []domain.HistoryRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func fetched(from, to string, rate float64, source string) domain.FetchedRate {
	return domain.FetchedRate{
		Pair:   domain.RatePair{From: from, To: to},
		Rate:   rate,
		Source: source,
		Meta:   map[string]any{"raw_id": from},
	}
}
