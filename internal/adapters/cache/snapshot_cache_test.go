package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"fxhub/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSnapshotReader struct{ mock.Mock }

func (m *MockSnapshotReader) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(domain.Snapshot)
	return snap, args.Error(1)
}

func testSnapshot() domain.Snapshot {
	ts := time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)
	return domain.Snapshot{
		Pairs:       map[string]domain.SnapshotEntry{"BTC_USD": {Rate: 65000, UpdatedAt: ts, Source: "CoinGecko"}},
		LastRefresh: &ts,
	}
}

// --- RistrettoSnapshotCache ---

func TestSnapshotCache_SetAndGet(t *testing.T) {
	c, err := NewSnapshotCache(16, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	snap := testSnapshot()
	_, gen, _ := c.Get()
	require.True(t, c.Set(snap, gen))

	got, _, ok := c.Get()
	require.True(t, ok)
	require.Equal(t, snap, got)
}

func TestSnapshotCache_GetMissWhenEmpty(t *testing.T) {
	c, err := NewSnapshotCache(16, 0)
	require.NoError(t, err)
	defer c.Close()

	_, _, ok := c.Get()
	require.False(t, ok)
}

func TestSnapshotCache_Invalidate(t *testing.T) {
	c, err := NewSnapshotCache(16, 0)
	require.NoError(t, err)
	defer c.Close()

	_, gen, _ := c.Get()
	require.True(t, c.Set(testSnapshot(), gen))
	c.Invalidate()

	_, newGen, ok := c.Get()
	require.False(t, ok)
	require.Equal(t, gen+1, newGen)
}

func TestSnapshotCache_SetWithStaleGenerationDropped(t *testing.T) {
	c, err := NewSnapshotCache(16, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	_, gen, _ := c.Get()
	c.Invalidate()

	require.False(t, c.Set(testSnapshot(), gen))
	_, _, ok := c.Get()
	require.False(t, ok)
}

// --- CachedSnapshotReader ---

func TestCachedSnapshotReader_LoadsOnceUntilInvalidated(t *testing.T) {
	c, err := NewSnapshotCache(16, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	next := new(MockSnapshotReader)
	next.On("LoadSnapshot", mock.Anything).Return(testSnapshot(), nil).Twice()
	r := NewCachedSnapshotReader(next, c)

	for i := 0; i < 3; i++ {
		snap, loadErr := r.LoadSnapshot(context.Background())
		require.NoError(t, loadErr)
		require.Len(t, snap.Pairs, 1)
	}
	next.AssertNumberOfCalls(t, "LoadSnapshot", 1)

	c.Invalidate()
	_, err = r.LoadSnapshot(context.Background())
	require.NoError(t, err)
	next.AssertNumberOfCalls(t, "LoadSnapshot", 2)
}

func TestCachedSnapshotReader_ErrorNotCached(t *testing.T) {
	c, err := NewSnapshotCache(16, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	next := new(MockSnapshotReader)
	next.On("LoadSnapshot", mock.Anything).Return(domain.Snapshot{}, errors.New("disk")).Once()
	r := NewCachedSnapshotReader(next, c)

	_, err = r.LoadSnapshot(context.Background())
	require.Error(t, err)
	_, _, ok := c.Get()
	require.False(t, ok)
	next.AssertExpectations(t)
}

func TestCachedSnapshotReader_WriteDuringLoadNotCached(t *testing.T) {
	c, err := NewSnapshotCache(16, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	old := testSnapshot()
	next := new(MockSnapshotReader)
	// a cycle saves and invalidates while the old file is being read
	next.On("LoadSnapshot", mock.Anything).Run(func(mock.Arguments) { c.Invalidate() }).Return(old, nil).Once()
	r := NewCachedSnapshotReader(next, c)

	snap, err := r.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, old, snap)

	_, _, ok := c.Get()
	require.False(t, ok, "snapshot read before the invalidation must not be cached")
	next.AssertExpectations(t)
}
