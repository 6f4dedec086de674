// Package metrics instruments the connection and request pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the server's Prometheus collectors. One instance is
// shared by the listener and the admin endpoint.
type Metrics struct {
	ConnectionsTotal  prometheus.Counter
	ActiveConnections prometheus.Gauge
	RequestsTotal     *prometheus.CounterVec
	ErrorsTotal       *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "guildd_connections_total",
			Help: "Accepted TCP connections.",
		}),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "guildd_connections_active",
			Help: "Connections currently being served.",
		}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guildd_requests_total",
			Help: "Requests handled, by variant.",
		}, []string{"variant"}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guildd_errors_total",
			Help: "Error responses sent, by kind.",
		}, []string{"kind"}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "guildd_request_duration_seconds",
			Help:    "Wall time from frame decode to response write.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
