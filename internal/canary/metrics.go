package canary

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the canary's prometheus instruments.
type Metrics struct {
	PassesTotal    prometheus.Counter
	PassesAborted  prometheus.Counter
	Outcomes       *prometheus.CounterVec
	PassSeconds    prometheus.Histogram
	NodesByVerdict *prometheus.GaugeVec
}

// NewMetrics registers the canary instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PassesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wlcanary_passes_total",
			Help: "Completed probe passes.",
		}),
		PassesAborted: factory.NewCounter(prometheus.CounterOpts{
			Name: "wlcanary_passes_aborted_total",
			Help: "Passes skipped because a shared mailbox had pending outbox mail.",
		}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wlcanary_probe_outcomes_total",
			Help: "Probe outcomes by node and result.",
		}, []string{"node", "outcome"}),
		PassSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wlcanary_pass_duration_seconds",
			Help:    "Wall-clock duration of a full probe pass.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		NodesByVerdict: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wlcanary_nodes",
			Help: "Monitored nodes by current verdict.",
		}, []string{"verdict"}),
	}
}
