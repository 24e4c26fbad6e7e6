package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"fxhub/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var resolveNow = time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)

const ttl = 300 * time.Second

func snapshotWith(entries map[string]domain.SnapshotEntry) domain.Snapshot {
	return domain.Snapshot{Pairs: entries, LastRefresh: &resolveNow}
}

func entryAged(rate float64, age time.Duration) domain.SnapshotEntry {
	return domain.SnapshotEntry{Rate: rate, UpdatedAt: resolveNow.Add(-age), Source: "test"}
}

func newTestResolver(snap domain.Snapshot) (*Resolver, *MockRateStore) {
	store := new(MockRateStore)
	store.On("LoadSnapshot", mock.Anything).Return(snap, nil)
	return NewResolver(testRegistry(), store, fixedClock(resolveNow)), store
}

func TestResolver_Identity_SkipsSnapshot(t *testing.T) {
	r, store := newTestResolver(domain.EmptySnapshot())

	for _, code := range testRegistry().SupportedCodes() {
		q, err := r.Resolve(context.Background(), code, code, 0)
		require.NoError(t, err)
		require.Equal(t, 1.0, q.Rate)
		require.NotNil(t, q.ReverseRate)
		require.Equal(t, 1.0, *q.ReverseRate)
		require.True(t, resolveNow.Equal(q.UpdatedAt))
	}
	store.AssertNotCalled(t, "LoadSnapshot", mock.Anything)
}

func TestResolver_UnknownCurrency(t *testing.T) {
	r, store := newTestResolver(domain.EmptySnapshot())

	_, err := r.Resolve(context.Background(), "usd", "DOGE", ttl)
	var notFound *domain.CurrencyNotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "DOGE", notFound.Code)

	// unknown codes fail even when identical
	_, err = r.Resolve(context.Background(), "DOGE", "DOGE", ttl)
	require.True(t, errors.As(err, &notFound))
	store.AssertNotCalled(t, "LoadSnapshot", mock.Anything)
}

func TestResolver_TTLBoundary(t *testing.T) {
	cases := []struct {
		name    string
		age     time.Duration
		wantErr bool
	}{
		{name: "fresh 299s", age: 299 * time.Second},
		{name: "exactly ttl is stale", age: 300 * time.Second, wantErr: true},
		{name: "stale 301s", age: 301 * time.Second, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestResolver(snapshotWith(map[string]domain.SnapshotEntry{
				"EUR_USD": entryAged(1.08, tc.age),
			}))

			q, err := r.Resolve(context.Background(), "EUR", "USD", ttl)
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrStaleOrMissingRate)
				return
			}
			require.NoError(t, err)
			require.InDelta(t, 1.08, q.Rate, 1e-9)
		})
	}
}

func TestResolver_Missing(t *testing.T) {
	r, _ := newTestResolver(domain.EmptySnapshot())

	_, err := r.Resolve(context.Background(), "ETH", "USD", ttl)
	require.ErrorIs(t, err, domain.ErrStaleOrMissingRate)
}

func TestResolver_ReverseRate_OnlyFromSnapshot(t *testing.T) {
	r, _ := newTestResolver(snapshotWith(map[string]domain.SnapshotEntry{
		"EUR_USD": entryAged(1.08, time.Minute),
		"USD_EUR": entryAged(0.93, time.Minute),
		"GBP_USD": entryAged(1.27, time.Minute),
	}))

	q, err := r.Resolve(context.Background(), "EUR", "USD", ttl)
	require.NoError(t, err)
	require.NotNil(t, q.ReverseRate)
	require.InDelta(t, 0.93, *q.ReverseRate, 1e-9)
	require.False(t, q.Estimated)

	q, err = r.Resolve(context.Background(), "GBP", "USD", ttl)
	require.NoError(t, err)
	require.Nil(t, q.ReverseRate)
}

func TestResolver_Estimate_FromReverse(t *testing.T) {
	r, _ := newTestResolver(snapshotWith(map[string]domain.SnapshotEntry{
		"BTC_USD": entryAged(50000, time.Minute),
		"EUR_USD": entryAged(1.25, time.Hour), // stale
	}))

	q, err := r.Estimate(context.Background(), "USD", "BTC", ttl)
	require.NoError(t, err)
	require.True(t, q.Estimated)
	require.InDelta(t, 0.00002, q.Rate, 1e-12)

	// strict lookup still refuses
	_, err = r.Resolve(context.Background(), "USD", "BTC", ttl)
	require.ErrorIs(t, err, domain.ErrStaleOrMissingRate)

	// a stale reverse is not used either
	_, err = r.Estimate(context.Background(), "USD", "EUR", ttl)
	require.ErrorIs(t, err, domain.ErrStaleOrMissingRate)
}

func TestResolver_LoadError(t *testing.T) {
	store := new(MockRateStore)
	store.On("LoadSnapshot", mock.Anything).Return(domain.Snapshot{}, &domain.StorageError{Op: "read", Err: errors.New("io")})
	r := NewResolver(testRegistry(), store, fixedClock(resolveNow))

	_, err := r.Resolve(context.Background(), "EUR", "USD", ttl)
	var storageErr *domain.StorageError
	require.True(t, errors.As(err, &storageErr))
	require.False(t, errors.Is(err, domain.ErrStaleOrMissingRate))
}
