//go:build linux

package aio

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics
// prometheus collectors for one context. A nil *Metrics records nothing.
type Metrics struct {
	submitted  prometheus.Counter
	completed  *prometheus.CounterVec
	wakeups    prometheus.Counter
	noProgress prometheus.Counter
	rejected   prometheus.Counter
	enters     prometheus.Counter
	inflight   prometheus.Gauge
	pending    prometheus.Gauge
	batchSize  prometheus.Histogram

	registerer prometheus.Registerer
}

const (
	completedKernel    = "kernel"
	completedImmediate = "immediate"
)

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submitted_total",
			Help:      "Total number of entries placed on the submission ring",
		}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completed_total",
			Help:      "Total number of completed tasks by completion path",
		}, []string{"path"}),
		wakeups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wakeups_total",
			Help:      "Total number of eventfd wakeups consumed by the reactor",
		}),
		noProgress: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "no_progress_total",
			Help:      "Total number of cycles with pending work and nothing submitted or in flight",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_total",
			Help:      "Total number of tasks rejected by backpressure",
		}),
		enters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enter_total",
			Help:      "Total number of io_uring_enter calls",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight",
			Help:      "Entries submitted to the kernel and not yet completed",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending",
			Help:      "Tasks waiting for a submission slot",
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Entries submitted per reactor cycle",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.submitted, m.completed, m.wakeups, m.noProgress, m.rejected,
		m.enters, m.inflight, m.pending, m.batchSize,
	}
}

// Register
// registers every collector with r. On failure the ones already
// registered are removed again.
func (m *Metrics) Register(r prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	collectors := m.collectors()
	for i, c := range collectors {
		if err := r.Register(c); err != nil {
			for _, registered := range collectors[:i] {
				r.Unregister(registered)
			}
			return err
		}
	}
	m.registerer = r
	return nil
}

// Unregister
// removes the collectors from the registerer Register used.
func (m *Metrics) Unregister() {
	if m == nil || m.registerer == nil {
		return
	}
	for _, c := range m.collectors() {
		m.registerer.Unregister(c)
	}
	m.registerer = nil
}

func (m *Metrics) observeSubmit(submitted uint32, rejected int) {
	if m == nil {
		return
	}
	if submitted > 0 {
		m.submitted.Add(float64(submitted))
		m.batchSize.Observe(float64(submitted))
	}
	if rejected > 0 {
		m.rejected.Add(float64(rejected))
	}
}

func (m *Metrics) observeComplete(kernel int, immediate int) {
	if m == nil {
		return
	}
	if kernel > 0 {
		m.completed.WithLabelValues(completedKernel).Add(float64(kernel))
	}
	if immediate > 0 {
		m.completed.WithLabelValues(completedImmediate).Add(float64(immediate))
	}
}

func (m *Metrics) observeQueues(inflight int, pending int) {
	if m == nil {
		return
	}
	m.inflight.Set(float64(inflight))
	m.pending.Set(float64(pending))
}

func (m *Metrics) incWakeups() {
	if m != nil {
		m.wakeups.Inc()
	}
}

func (m *Metrics) incNoProgress() {
	if m != nil {
		m.noProgress.Inc()
	}
}

func (m *Metrics) incEnters() {
	if m != nil {
		m.enters.Inc()
	}
}
