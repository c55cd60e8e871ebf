package optimistic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tada",
			Subsystem: "optimistic",
			Name:      "mutations_total",
			Help:      "Mutations applied locally.",
		},
		[]string{"kind"},
	)

	writeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tada",
			Subsystem: "optimistic",
			Name:      "write_failures_total",
			Help:      "Remote writes that failed.",
		},
		[]string{"kind"},
	)

	rollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tada",
			Subsystem: "optimistic",
			Name:      "rollbacks_total",
			Help:      "Compensations that changed local state.",
		},
		[]string{"kind"},
	)

	inflightWrites = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tada",
			Subsystem: "optimistic",
			Name:      "inflight_writes",
			Help:      "Remote writes issued and not yet settled.",
		},
	)
)
