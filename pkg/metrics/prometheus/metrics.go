// Package prometheus is the Prometheus-backed implementation of the
// dispatch core's metrics collector, grounded on the teacher's
// pkg/metrics/prometheus collector pattern (construct-gated on
// metrics.IsEnabled, registered via promauto.With(reg)).
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vaultd/vaultd/pkg/metrics"
)

// DispatchMetrics is the set of gauges, counters, and histograms the
// dispatch core (pkg/server) reports into.
type DispatchMetrics struct {
	SocketQueueDepth prometheus.Gauge
	TaskQueueDepth   prometheus.Gauge
	ActiveHandlers   prometheus.Gauge
	ActiveWorkers    prometheus.Gauge

	TasksCompleted *prometheus.CounterVec // labels: kind, outcome
	TaskWaitMs     *prometheus.HistogramVec
	LockBusy       *prometheus.CounterVec // labels: reason
}

// NewDispatchMetrics constructs the collector set. Returns nil if metrics
// are not enabled (InitRegistry not called). Every method is a no-op on a
// nil receiver, so callers can pass a nil *DispatchMetrics around and call
// it unconditionally rather than threading a separate "enabled" flag
// everywhere.
func NewDispatchMetrics() *DispatchMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &DispatchMetrics{
		SocketQueueDepth: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vaultd_socket_queue_depth",
			Help: "Current number of accepted sockets waiting for a handler.",
		}),
		TaskQueueDepth: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vaultd_task_queue_depth",
			Help: "Current number of tasks waiting for a worker.",
		}),
		ActiveHandlers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vaultd_active_handlers",
			Help: "Number of handler goroutines currently owning a session.",
		}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vaultd_active_workers",
			Help: "Number of worker goroutines currently executing a task.",
		}),
		TasksCompleted: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "vaultd_tasks_completed_total",
			Help: "Total tasks reaching a terminal state, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		TaskWaitMs: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "vaultd_task_wait_milliseconds",
			Help: "Time a task spent queued before a worker began executing it.",
			Buckets: []float64{
				1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000,
			},
		}, []string{"kind"}),
		LockBusy: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "vaultd_lock_busy_total",
			Help: "Total try_acquire calls that failed, by reason.",
		}, []string{"reason"}),
	}
}

// ObserveTaskCompleted is a no-op on a nil receiver, so callers can report
// unconditionally instead of guarding every call site.
func (m *DispatchMetrics) ObserveTaskCompleted(kind, outcome string) {
	if m == nil {
		return
	}
	m.TasksCompleted.WithLabelValues(kind, outcome).Inc()
}

func (m *DispatchMetrics) ObserveTaskWait(kind string, ms float64) {
	if m == nil {
		return
	}
	m.TaskWaitMs.WithLabelValues(kind).Observe(ms)
}

func (m *DispatchMetrics) ObserveLockBusy(reason string) {
	if m == nil {
		return
	}
	m.LockBusy.WithLabelValues(reason).Inc()
}

func (m *DispatchMetrics) SetSocketQueueDepth(n float64) {
	if m == nil {
		return
	}
	m.SocketQueueDepth.Set(n)
}

func (m *DispatchMetrics) SetTaskQueueDepth(n float64) {
	if m == nil {
		return
	}
	m.TaskQueueDepth.Set(n)
}

func (m *DispatchMetrics) IncActiveWorkers() {
	if m == nil {
		return
	}
	m.ActiveWorkers.Inc()
}

func (m *DispatchMetrics) DecActiveWorkers() {
	if m == nil {
		return
	}
	m.ActiveWorkers.Dec()
}

func (m *DispatchMetrics) IncActiveHandlers() {
	if m == nil {
		return
	}
	m.ActiveHandlers.Inc()
}

func (m *DispatchMetrics) DecActiveHandlers() {
	if m == nil {
		return
	}
	m.ActiveHandlers.Dec()
}
