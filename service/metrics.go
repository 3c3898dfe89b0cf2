package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ibreez3/learnsphere-ai/assistant"
)

// Metrics counts completion attempts and replies. It implements assistant.Observer.
type Metrics struct {
	attempts *prometheus.CounterVec
	duration prometheus.Histogram
	replies  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		attempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "learnsphere",
				Subsystem: "assistant",
				Name:      "attempts_total",
				Help:      "Completion attempts by outcome",
			},
			[]string{"outcome"},
		),
		duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "learnsphere",
				Subsystem: "assistant",
				Name:      "attempt_duration_seconds",
				Help:      "Duration of a single completion attempt",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		replies: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "learnsphere",
				Subsystem: "assistant",
				Name:      "replies_total",
				Help:      "Replies returned to learners by final outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) ObserveAttempt(a assistant.Attempt) {
	m.attempts.WithLabelValues(a.Outcome.String()).Inc()
	m.duration.Observe(a.Elapsed.Seconds())
}

func (m *Metrics) ObserveReply(o assistant.Outcome) {
	m.replies.WithLabelValues(o.String()).Inc()
}

// ObserveFailure counts a call that produced no reply at all.
func (m *Metrics) ObserveFailure() {
	m.replies.WithLabelValues("error").Inc()
}
