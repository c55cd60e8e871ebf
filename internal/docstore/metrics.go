package docstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	watchers *prometheus.GaugeVec
	pushes   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tada",
			Subsystem: "docstore",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tada",
			Subsystem: "docstore",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		watchers: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tada",
			Subsystem: "docstore",
			Name:      "watchers",
			Help:      "Open watch connections.",
		}, []string{"collection"}),
		pushes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tada",
			Subsystem: "docstore",
			Name:      "pushes_total",
			Help:      "Snapshots written to watch connections.",
		}, []string{"collection"}),
	}
}
