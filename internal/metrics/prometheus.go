package metrics

import (
	"sync"

	"github.com/phausler/seqshare/types"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	rounds           *prometheus.CounterVec
	roundDuration    prometheus.Histogram
	participants     prometheus.Gauge
	dispositions     *prometheus.CounterVec
	cancelsForwarded prometheus.Counter
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "seqshare" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "seqshare"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.rounds = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "rounds",
			Name:      "completed_total",
			Help:      "Total completed lockstep rounds by outcome (element, end, failure).",
		}, []string{"outcome"})

		p.roundDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "rounds",
			Name:      "production_seconds",
			Help:      "Duration of the upstream production step per round in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms .. ~4s
		})

		p.participants = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "participants",
			Name:      "current",
			Help:      "Current number of registered subscribers.",
		})

		p.dispositions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "participants",
			Name:      "dispositions_total",
			Help:      "Total round-entry dispositions by kind (primary, dependent, cancelled).",
		}, []string{"disposition"})

		p.cancelsForwarded = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "rounds",
			Name:      "production_cancels_forwarded_total",
			Help:      "Total production calls whose cancellation was forwarded after the last subscriber departed.",
		})

		p.reg.MustRegister(
			p.rounds,
			p.roundDuration,
			p.participants,
			p.dispositions,
			p.cancelsForwarded,
		)
	})
}

// RecordRound records one completed round.
func (p *PrometheusCollector) RecordRound(duration float64, outcome string) {
	p.ensureRegistered()
	p.rounds.WithLabelValues(outcome).Inc()
	p.roundDuration.Observe(duration)
}

// RecordProductionCancelForwarded records a forwarded production cancellation.
func (p *PrometheusCollector) RecordProductionCancelForwarded() {
	p.ensureRegistered()
	p.cancelsForwarded.Inc()
}

// RecordParticipantCount sets the current subscriber count.
func (p *PrometheusCollector) RecordParticipantCount(count int) {
	p.ensureRegistered()
	p.participants.Set(float64(count))
}

// RecordDisposition records a round-entry disposition.
func (p *PrometheusCollector) RecordDisposition(disposition string) {
	p.ensureRegistered()
	p.dispositions.WithLabelValues(disposition).Inc()
}
