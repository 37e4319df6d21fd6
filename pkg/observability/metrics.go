package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/rewind/pkg/domain"
)

// Metrics holds the collectors fed by machine hooks.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	HistoryLength prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewind_transitions_total",
				Help: "Total number of successful machine operations, by operation.",
			},
			[]string{"op"},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewind_rejections_total",
				Help: "Total number of rejected machine operations, by operation.",
			},
			[]string{"op"},
		),
		HistoryLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rewind_history_length",
				Help:    "History length observed after each successful operation.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Transitions, m.Rejections, m.HistoryLength)
	}
	return m
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(string(e.Op)).Inc()
			m.HistoryLength.Observe(float64(e.HistoryLen))
		},
		OnRejected: func(e *domain.RejectedEvent) {
			m.Rejections.WithLabelValues(string(e.Op)).Inc()
		},
	}
}
