// Package poller provides the background poller that samples channel status
// and maintains viewership history.
package poller

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricPollsTotal           = "poller_polls_total"
	MetricPollDuration         = "poller_poll_duration_seconds"
	MetricSamplesAppendedTotal = "poller_samples_appended_total"
	MetricCompactionsTotal     = "poller_compactions_total"
	MetricSamplesDroppedTotal  = "poller_compaction_samples_dropped_total"
)

// Status constants for poll completion.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics contains Prometheus metrics for poller operations.
// All operations are thread-safe.
type Metrics struct {
	pollsTotal      *prometheus.CounterVec
	pollDuration    prometheus.Histogram
	samplesAppended prometheus.Counter
	compactions     prometheus.Counter
	samplesDropped  prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		pollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPollsTotal,
				Help: "Total number of channel polls by status",
			},
			[]string{"status"},
		),
		pollDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricPollDuration,
				Help:    "Histogram of full poll cycle duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
		),
		samplesAppended: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricSamplesAppendedTotal,
				Help: "Total number of viewer samples appended to histories",
			},
		),
		compactions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricCompactionsTotal,
				Help: "Total number of history compactions performed",
			},
		),
		samplesDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricSamplesDroppedTotal,
				Help: "Total number of samples removed by compaction",
			},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncPolls increments the polls counter with the given status.
func (m *Metrics) IncPolls(status string) {
	m.pollsTotal.WithLabelValues(status).Inc()
}

// ObservePollDuration records the duration of a full poll cycle in seconds.
func (m *Metrics) ObservePollDuration(seconds float64) {
	m.pollDuration.Observe(seconds)
}

// IncSamplesAppended increments the appended samples counter.
func (m *Metrics) IncSamplesAppended() {
	m.samplesAppended.Inc()
}

// ObserveCompaction records one compaction that dropped the given number of samples.
func (m *Metrics) ObserveCompaction(dropped int) {
	m.compactions.Inc()
	if dropped > 0 {
		m.samplesDropped.Add(float64(dropped))
	}
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.pollsTotal,
		m.pollDuration,
		m.samplesAppended,
		m.compactions,
		m.samplesDropped,
	}
}
