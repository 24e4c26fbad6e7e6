// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxhub_source_fetch_total",
			Help: "Rate source fetches by outcome",
		},
		[]string{"source", "status"},
	)

	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fxhub_source_fetch_duration_seconds",
			Help:    "Latency of rate source fetches",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	UpdateCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxhub_update_cycles_total",
			Help: "Update cycles by result",
		},
		[]string{"result"},
	)

	UpdateCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fxhub_update_cycle_duration_seconds",
			Help:    "Duration of update cycles",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotPairs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fxhub_snapshot_pairs",
			Help: "Number of pairs in the last written snapshot",
		},
	)

	ResolveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxhub_resolve_total",
			Help: "Rate lookups by result",
		},
		[]string{"result"},
	)
)

func RecordSourceFetch(source string, err error, took time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	SourceFetchTotal.WithLabelValues(source, status).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(took.Seconds())
}

func RecordCycle(result string, took time.Duration, pairs int) {
	UpdateCyclesTotal.WithLabelValues(result).Inc()
	UpdateCycleDuration.Observe(took.Seconds())
	if pairs > 0 {
		SnapshotPairs.Set(float64(pairs))
	}
}

func RecordResolve(result string) {
	ResolveTotal.WithLabelValues(result).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
