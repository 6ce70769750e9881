package social

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// joinFailures counts enrichments left empty because their fetch failed
	joinFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultsocial_join_failures_total",
		Help: "Per-record enrichment failures by kind",
	}, []string{"kind"})

	// listDuration tracks how long list operations take, enrichment included
	listDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vaultsocial_list_duration_seconds",
		Help:    "List operation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"collection"})

	// writesTotal counts record writes by collection and operation
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultsocial_writes_total",
		Help: "Record writes by collection and operation",
	}, []string{"collection", "op"})

	// registeredVaults tracks the size of the session's vault registry
	registeredVaults = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vaultsocial_registered_vaults",
		Help: "Vaults currently registered for indexing",
	})
)

func observeList(collection string, start time.Time) {
	listDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())
}
