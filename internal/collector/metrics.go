package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collection outcomes recorded in procinfo_collections_total.
const (
	OutcomeSuccess     = "success"
	OutcomeLaunchError = "launch_error"
	OutcomeDecodeError = "decode_error"
	OutcomeWorkerError = "worker_error"
	OutcomeThrottled   = "throttled"
)

// Metrics records collection outcomes and worker round-trip latency.
type Metrics struct {
	collections *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics creates the collector metrics and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		collections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "procinfo",
			Name:      "collections_total",
			Help:      "Process metric collections by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "procinfo",
			Name:      "collection_duration_seconds",
			Help:      "Time from worker launch to decoded result.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 2, 5, 10},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.collections, m.duration)
	}
	return m
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.collections.WithLabelValues(outcome).Inc()
	if outcome != OutcomeThrottled {
		m.duration.Observe(elapsed.Seconds())
	}
}

func outcomeOf(err error) string {
	switch err.(type) {
	case nil:
		return OutcomeSuccess
	case *LaunchError:
		return OutcomeLaunchError
	case *DecodeError:
		return OutcomeDecodeError
	default:
		return OutcomeWorkerError
	}
}
