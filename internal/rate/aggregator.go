package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fxhub/internal/adapters"
	"fxhub/internal/domain"
	"fxhub/internal/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const numWorkers = 5
const defaultFetchTimeout = 10 * time.Second

type fetchResult struct {
	index  int
	source string
	rates  []domain.FetchedRate
	err    error
}

// Aggregator runs update cycles: it polls every source, merges what they
// returned into one snapshot and persists snapshot and history.
type Aggregator struct {
	sources      []adapters.RateSource // priority order, later sources win
	store        adapters.RateStore
	lock         adapters.CycleLock
	cache        adapters.SnapshotCache
	publisher    adapters.HistoryPublisher
	logger       logrus.FieldLogger
	now          func() time.Time
	fetchTimeout time.Duration
}

type AggregatorOption func(*Aggregator)

func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

func WithCycleLock(lock adapters.CycleLock) AggregatorOption {
	return func(a *Aggregator) { a.lock = lock }
}

func WithSnapshotCache(cache adapters.SnapshotCache) AggregatorOption {
	return func(a *Aggregator) { a.cache = cache }
}

func WithHistoryPublisher(p adapters.HistoryPublisher) AggregatorOption {
	return func(a *Aggregator) { a.publisher = p }
}

func WithFetchTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		if d > 0 {
			a.fetchTimeout = d
		}
	}
}

func NewAggregator(sources []adapters.RateSource, store adapters.RateStore, logger logrus.FieldLogger, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		sources:      sources,
		store:        store,
		lock:         &localLock{},
		logger:       logger,
		now:          time.Now,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunUpdateCycle performs one update. Source failures are reported in the
// outcome and never abort the cycle; only lock and storage failures are
// returned as errors.
func (a *Aggregator) RunUpdateCycle(ctx context.Context) (domain.UpdateOutcome, error) {
	start := time.Now()
	outcome := domain.UpdateOutcome{ExecID: uuid.NewString()}
	log := a.logger.WithField("exec_id", outcome.ExecID)

	release, ok, err := a.lock.TryAcquire(ctx)
	if err != nil {
		metrics.RecordCycle("error", time.Since(start), 0)
		return outcome, fmt.Errorf("failed to acquire cycle lock: %w", err)
	}
	if !ok {
		log.Info("Another update cycle is in progress, skipping")
		outcome.Skipped = true
		metrics.RecordCycle("skipped", time.Since(start), 0)
		return outcome, nil
	}
	defer release()

	// one timestamp for the whole cycle, so its history records group together
	ts := a.now().UTC().Truncate(time.Microsecond)
	log.Infof("Starting rates update from %d sources", len(a.sources))

	results := a.fetchInParallel(ctx, log)
	pairs, records, failures := mergeResults(results, ts, log)
	outcome.Errors = failures

	if len(pairs) == 0 {
		log.Warn("No rates were fetched; snapshot not updated")
		metrics.RecordCycle("empty", time.Since(start), 0)
		return outcome, nil
	}

	// a canceled cycle must not overwrite the committed snapshot with partial work
	if err = ctx.Err(); err != nil {
		metrics.RecordCycle("canceled", time.Since(start), 0)
		return outcome, fmt.Errorf("update cycle abandoned: %w", err)
	}

	appended, err := a.store.AppendHistory(ctx, records)
	if err != nil {
		metrics.RecordCycle("error", time.Since(start), 0)
		return outcome, fmt.Errorf("failed to append history: %w", err)
	}
	if err = a.store.SaveSnapshot(ctx, pairs, ts); err != nil {
		metrics.RecordCycle("error", time.Since(start), 0)
		return outcome, fmt.Errorf("failed to save snapshot: %w", err)
	}
	if a.cache != nil {
		a.cache.Invalidate()
	}

	outcome.TotalRates = len(pairs)
	outcome.LastRefresh = &ts
	log.Infof("Wrote %d rates to snapshot and %d history records, last_refresh=%s", len(pairs), appended, ts.Format(time.RFC3339))

	if a.publisher != nil {
		if pubErr := a.publisher.Publish(ctx, records); pubErr != nil {
			log.WithError(pubErr).Warn("Failed to publish history records")
		}
	}

	result := "ok"
	if len(failures) > 0 {
		result = "partial"
	}
	metrics.RecordCycle(result, time.Since(start), len(pairs))
	return outcome, nil
}

// fetchInParallel polls all sources with a bounded worker pool. Results are
// returned in source priority order regardless of completion order.
func (a *Aggregator) fetchInParallel(ctx context.Context, log logrus.FieldLogger) []fetchResult {
	workQueue := make(chan int, len(a.sources))
	for i := range a.sources {
		workQueue <- i
	}
	close(workQueue)

	resultsCh := make(chan fetchResult, len(a.sources))

	var wg sync.WaitGroup
	for i := 0; i < min(numWorkers, len(a.sources)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.runWorker(ctx, workQueue, resultsCh, log)
		}()
	}

	wg.Wait()
	close(resultsCh)

	results := make([]fetchResult, len(a.sources))
	for i, src := range a.sources {
		results[i] = fetchResult{index: i, source: src.Name(), err: context.Canceled}
	}
	for res := range resultsCh {
		results[res.index] = res
	}
	return results
}

func (a *Aggregator) runWorker(ctx context.Context, workQueue <-chan int, resultsCh chan<- fetchResult, log logrus.FieldLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case idx, ok := <-workQueue:
			if !ok {
				return
			}
			resultsCh <- a.fetchSource(ctx, idx, log)
		}
	}
}

func (a *Aggregator) fetchSource(ctx context.Context, idx int, log logrus.FieldLogger) fetchResult {
	src := a.sources[idx]
	reqCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	rates, err := src.FetchRates(reqCtx)
	if err != nil {
		log.WithField("source", src.Name()).Warnf("Source failed, it'll be retried next cycle: %v", err)
		return fetchResult{index: idx, source: src.Name(), err: err}
	}
	log.WithField("source", src.Name()).Infof("Fetched %d rates", len(rates))
	return fetchResult{index: idx, source: src.Name(), rates: rates}
}

// mergeResults folds results in priority order: on a duplicate pair key the
// later source replaces the earlier one, in the snapshot and in the cycle's
// history alike.
func mergeResults(results []fetchResult, ts time.Time, log logrus.FieldLogger) (map[string]domain.SnapshotEntry, []domain.HistoryRecord, []domain.SourceFailure) {
	pairs := make(map[string]domain.SnapshotEntry)
	records := make([]domain.HistoryRecord, 0)
	recordIdx := make(map[string]int)
	var failures []domain.SourceFailure

	for _, res := range results {
		if res.err != nil {
			failures = append(failures, domain.SourceFailure{Source: res.source, Err: res.err})
			continue
		}
		for _, fr := range res.rates {
			pair, err := domain.ParsePairKey(fr.Pair.Key())
			if err != nil || fr.Rate <= 0 {
				log.WithField("source", res.source).Warnf("Dropping invalid rate %s=%v", fr.Pair.Key(), fr.Rate)
				continue
			}
			source := fr.Source
			if source == "" {
				source = res.source
			}
			key := pair.Key()
			pairs[key] = domain.SnapshotEntry{Rate: fr.Rate, UpdatedAt: ts, Source: source}

			meta := fr.Meta
			if meta == nil {
				meta = map[string]any{}
			}
			rec := domain.HistoryRecord{
				ID:           domain.HistoryID(pair, ts),
				FromCurrency: pair.From,
				ToCurrency:   pair.To,
				Rate:         fr.Rate,
				Timestamp:    ts,
				Source:       source,
				Meta:         meta,
			}
			if i, ok := recordIdx[key]; ok {
				records[i] = rec
				continue
			}
			recordIdx[key] = len(records)
			records = append(records, rec)
		}
	}
	return pairs, records, failures
}

// localLock is the default in-process cycle guard.
type localLock struct {
	mu sync.Mutex
}

func (l *localLock) TryAcquire(_ context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}
