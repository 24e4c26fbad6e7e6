package rate

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"fxhub/internal/domain"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestValuator(snap domain.Snapshot) *Valuator {
	logger, _ := logtest.NewNullLogger()
	r, _ := newTestResolver(snap)
	return NewValuator(testRegistry(), r, ttl, logger)
}

func TestValuator_SingleAsset(t *testing.T) {
	v := newTestValuator(snapshotWith(map[string]domain.SnapshotEntry{
		"BTC_USD": entryAged(65000, 0),
	}))

	res, err := v.ValuePortfolio(context.Background(), []domain.Balance{{Code: "BTC", Amount: 0.5}}, "USD")
	require.NoError(t, err)
	require.Equal(t, "USD", res.Base)
	require.InDelta(t, 32500.0, res.Total, 1e-9)
	require.Len(t, res.Entries, 1)
	require.True(t, res.Entries[0].Available)
	require.InDelta(t, 32500.0, *res.Entries[0].Value, 1e-9)
}

func TestValuator_MissingRateExcluded(t *testing.T) {
	v := newTestValuator(domain.EmptySnapshot())

	res, err := v.ValuePortfolio(context.Background(), []domain.Balance{{Code: "ETH", Amount: 2}}, "USD")
	require.NoError(t, err)
	require.Equal(t, 0.0, res.Total)
	require.Len(t, res.Entries, 1)
	require.False(t, res.Entries[0].Available)
	require.Nil(t, res.Entries[0].Value)
}

func TestValuator_MixedPortfolio(t *testing.T) {
	v := newTestValuator(snapshotWith(map[string]domain.SnapshotEntry{
		"BTC_USD": entryAged(65000, time.Minute),
		"EUR_USD": entryAged(1.1, time.Hour), // stale
	}))

	res, err := v.ValuePortfolio(context.Background(), []domain.Balance{
		{Code: "usd", Amount: 100},
		{Code: "BTC", Amount: 0.1},
		{Code: "EUR", Amount: 50},
		{Code: "DOGE", Amount: 1000},
	}, "usd")
	require.NoError(t, err)
	require.InDelta(t, 6600.0, res.Total, 1e-9)

	require.Len(t, res.Entries, 4)
	require.Equal(t, []string{"USD", "BTC", "EUR", "DOGE"}, []string{res.Entries[0].Code, res.Entries[1].Code, res.Entries[2].Code, res.Entries[3].Code})
	require.True(t, res.Entries[0].Available)
	require.True(t, res.Entries[1].Available)
	require.False(t, res.Entries[2].Available)
	require.False(t, res.Entries[3].Available)
}

func TestValuator_UnknownBase(t *testing.T) {
	v := newTestValuator(domain.EmptySnapshot())

	_, err := v.ValuePortfolio(context.Background(), []domain.Balance{{Code: "BTC", Amount: 1}}, "XXX")
	var notFound *domain.CurrencyNotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestValuator_LookupFailureDegrades(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	store := new(MockRateStore)
	store.On("LoadSnapshot", mock.Anything).Return(domain.Snapshot{}, &domain.StorageError{Op: "decode", Err: errors.New("bad json")})
	v := NewValuator(testRegistry(), NewResolver(testRegistry(), store, fixedClock(resolveNow)), ttl, logger)

	res, err := v.ValuePortfolio(context.Background(), []domain.Balance{
		{Code: "BTC", Amount: 1},
		{Code: "USD", Amount: 10},
	}, "USD")
	require.NoError(t, err)
	require.False(t, res.Entries[0].Available)
	require.InDelta(t, 10.0, res.Total, 1e-9)
	require.Equal(t, "Rate lookup failed, excluding balance from valuation", hook.LastEntry().Message)
}

func TestValuator_NonFiniteAndOverflowingEntriesExcluded(t *testing.T) {
	v := newTestValuator(snapshotWith(map[string]domain.SnapshotEntry{
		"BTC_USD": entryAged(65000, 0),
		"EUR_USD": entryAged(1.1, 0),
	}))

	var res domain.Valuation
	require.NotPanics(t, func() {
		var err error
		res, err = v.ValuePortfolio(context.Background(), []domain.Balance{
			{Code: "USD", Amount: 1.7e308},
			{Code: "BTC", Amount: 1e308},
			{Code: "EUR", Amount: math.Inf(1)},
		}, "USD")
		require.NoError(t, err)
	})

	require.Equal(t, 1.7e308, res.Total)
	require.True(t, res.Entries[0].Available)
	require.False(t, res.Entries[1].Available)
	require.Nil(t, res.Entries[1].Value)
	require.False(t, res.Entries[2].Available)
}
