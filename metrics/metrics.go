// Package metrics exposes Prometheus collectors for the agent layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for routed requests. It implements
// agent.RouteObserver so the Manager can feed it directly.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "costfx",
				Subsystem: "agents",
				Name:      "requests_total",
				Help:      "Routed agent requests by agent, request type and outcome.",
			},
			[]string{"agent", "type", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "costfx",
				Subsystem: "agents",
				Name:      "request_duration_milliseconds",
				Help:      "Routed agent request latency in milliseconds.",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
			},
			[]string{"agent", "type"},
		),
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration)

	return m
}

// ObserveRoute records one routed request.
func (m *Metrics) ObserveRoute(agentName, requestType string, success bool, elapsedMillis float64) {
	status := "success"
	if !success {
		status = "failure"
	}

	m.requestsTotal.WithLabelValues(agentName, requestType, status).Inc()
	m.requestDuration.WithLabelValues(agentName, requestType).Observe(elapsedMillis)
}
