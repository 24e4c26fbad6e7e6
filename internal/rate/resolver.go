package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxhub/internal/adapters"
	"fxhub/internal/domain"
	"fxhub/internal/metrics"
)

// Resolver answers rate lookups against the committed snapshot.
type Resolver struct {
	registry *Registry
	reader   adapters.SnapshotReader
	now      func() time.Time
}

func NewResolver(registry *Registry, reader adapters.SnapshotReader, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{registry: registry, reader: reader, now: now}
}

// Resolve returns the rate for from->to. An entry whose age is ttl or more is
// stale. ReverseRate is only filled from an observed to->from entry.
func (r *Resolver) Resolve(ctx context.Context, from, to string, ttl time.Duration) (domain.RateQuote, error) {
	quote, _, err := r.lookup(ctx, from, to, ttl)
	return quote, err
}

// Estimate is the best-effort variant of Resolve: when the direct entry is
// missing or stale but a fresh reverse entry exists, it returns 1/reverse
// marked as Estimated.
func (r *Resolver) Estimate(ctx context.Context, from, to string, ttl time.Duration) (domain.RateQuote, error) {
	quote, snap, err := r.lookup(ctx, from, to, ttl)
	if err == nil || !errors.Is(err, domain.ErrStaleOrMissingRate) {
		return quote, err
	}

	pair := domain.RatePair{From: NormalizeCode(from), To: NormalizeCode(to)}
	rev, ok := snap.Lookup(pair.Reversed())
	if !ok || !r.fresh(rev, ttl) || rev.Rate <= 0 {
		return domain.RateQuote{}, err
	}
	reverse := rev.Rate
	return domain.RateQuote{
		Rate:        1 / rev.Rate,
		UpdatedAt:   rev.UpdatedAt,
		ReverseRate: &reverse,
		Estimated:   true,
	}, nil
}

func (r *Resolver) lookup(ctx context.Context, from, to string, ttl time.Duration) (domain.RateQuote, domain.Snapshot, error) {
	from, to = NormalizeCode(from), NormalizeCode(to)
	if err := r.registry.ValidateCodes(from, to); err != nil {
		metrics.RecordResolve("unknown")
		return domain.RateQuote{}, domain.Snapshot{}, err
	}

	if from == to {
		metrics.RecordResolve("identity")
		one := 1.0
		return domain.RateQuote{Rate: 1, UpdatedAt: r.now().UTC(), ReverseRate: &one}, domain.Snapshot{}, nil
	}

	snap, err := r.reader.LoadSnapshot(ctx)
	if err != nil {
		return domain.RateQuote{}, domain.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	pair := domain.RatePair{From: from, To: to}
	entry, ok := snap.Lookup(pair)
	if !ok || !r.fresh(entry, ttl) {
		metrics.RecordResolve("stale")
		return domain.RateQuote{}, snap, fmt.Errorf("%s: %w", pair.Key(), domain.ErrStaleOrMissingRate)
	}

	quote := domain.RateQuote{Rate: entry.Rate, UpdatedAt: entry.UpdatedAt}
	if rev, ok := snap.Lookup(pair.Reversed()); ok {
		reverse := rev.Rate
		quote.ReverseRate = &reverse
	}
	metrics.RecordResolve("hit")
	return quote, snap, nil
}

func (r *Resolver) fresh(e domain.SnapshotEntry, ttl time.Duration) bool {
	return r.now().Sub(e.UpdatedAt) < ttl
}
