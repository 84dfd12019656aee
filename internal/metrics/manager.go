// Package metrics holds the prometheus instruments of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager groups the service's prometheus instruments.
type Manager struct {
	CounterRequests     *prometheus.CounterVec
	CounterRequestPanic prometheus.Counter
	CounterSessions     *prometheus.CounterVec
	CounterImports      *prometheus.CounterVec

	GaugeRequests prometheus.Gauge

	HistRequestDuration *prometheus.HistogramVec
}

// NewTestManager returns a Manager on a throwaway registry.
func NewTestManager() *Manager {
	return NewManager("liftlog", "test", prometheus.NewRegistry())
}

// NewManager registers every instrument on reg.
func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterRequestPanic: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_panics_total",
			Help:      "The total number of recovered handler panics",
		}),
		CounterSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_written_total",
			Help:      "Sessions written through the API, by operation",
		}, []string{"op"}),
		CounterImports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "imports_total",
			Help:      "CSV imports received through the API, by outcome",
		}, []string{"status"}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Current number of requests served",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
		}, []string{"route"}),
	}
}
