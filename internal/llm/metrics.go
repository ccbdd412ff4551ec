package llm

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-attempt provider latency and outcome.
type Metrics struct {
	latency  *prometheus.HistogramVec
	attempts *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vetchat",
				Subsystem: "llm",
				Name:      "attempt_duration_seconds",
				Help:      "Latency of a single provider attempt",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
			},
			[]string{"provider", "model", "outcome"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vetchat",
				Subsystem: "llm",
				Name:      "attempts_total",
				Help:      "Provider attempts by outcome (ok or failure kind)",
			},
			[]string{"provider", "model", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.latency, m.attempts)
	}
	return m
}

func (m *Metrics) observe(a Attempt) {
	if m == nil {
		return
	}
	outcome := "ok"
	if a.Err != nil {
		outcome = string(a.Kind)
	}
	m.latency.WithLabelValues(a.Provider, a.Model, outcome).Observe(a.Latency.Seconds())
	m.attempts.WithLabelValues(a.Provider, a.Model, outcome).Inc()
}
