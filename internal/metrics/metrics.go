package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProductionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omnipos",
		Subsystem: "production",
		Name:      "runs_total",
		Help:      "Production requests by final state.",
	}, []string{"state"})

	ProductionConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "omnipos",
		Subsystem: "production",
		Name:      "conflict_retries_total",
		Help:      "Units of work retried after a concurrency conflict.",
	})

	ProductionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "omnipos",
		Subsystem: "production",
		Name:      "duration_seconds",
		Help:      "Wall time of production requests by final state.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"state"})

	StockAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omnipos",
		Subsystem: "stock",
		Name:      "adjustments_total",
		Help:      "Stock ledger entries written, by stock kind and movement type.",
	}, []string{"kind", "movement_type"})
)
