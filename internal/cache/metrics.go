package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orbit",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Tiered cache lookups by domain and outcome.",
		},
		[]string{"domain", "outcome"},
	)

	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orbit",
			Subsystem: "cache",
			Name:      "remote_fetches_total",
			Help:      "Remote fetch invocations by domain and result.",
		},
		[]string{"domain", "result"},
	)

	sweptTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orbit",
			Subsystem: "cache",
			Name:      "swept_entries_total",
			Help:      "Persistent entries removed by the expiry sweep.",
		},
		[]string{"domain"},
	)
)

// Lookup outcomes.
const (
	outcomeMemory       = "memory"
	outcomePersistent   = "persistent"
	outcomeFetched      = "fetched"
	outcomeOfflineStale = "offline_stale"
	outcomeOfflineEmpty = "offline_empty"
	outcomeStaleOnError = "stale_on_error"
	outcomeFetchFailed  = "fetch_failed"
)
