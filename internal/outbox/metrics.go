package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pendingGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "orbit",
			Subsystem: "outbox",
			Name:      "pending_entries",
			Help:      "Outbox entries waiting for delivery (as last observed).",
		},
	)

	deliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orbit",
			Subsystem: "outbox",
			Name:      "delivered_total",
			Help:      "Entries confirmed by the remote.",
		},
		[]string{"op"},
	)

	deliveryFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orbit",
			Subsystem: "outbox",
			Name:      "delivery_failures_total",
			Help:      "Entries whose delivery failed after retries.",
		},
		[]string{"op", "kind"},
	)

	poisonedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "orbit",
			Subsystem: "outbox",
			Name:      "poisoned_total",
			Help:      "Entries parked after a permanent rejection.",
		},
	)

	deliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orbit",
			Subsystem: "outbox",
			Name:      "delivery_seconds",
			Help:      "Latency of single delivery attempts.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)
