package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records outcomes of the basket/order synchronization flows
// (checkout, update, cancel, merge, reorder).
type SyncMetrics struct {
	duration  *prometheus.HistogramVec
	success   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	conflicts prometheus.Counter
}

// NewSyncMetrics registers the synchronizer metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "basket_sync_flow_duration_seconds",
		Help:    "Duration of basket synchronization flows in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"flow"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "basket_sync_flow_success",
		Help: "Successful basket synchronization flows.",
	}, []string{"flow"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "basket_sync_flow_failure",
		Help: "Failed basket synchronization flows.",
	}, []string{"flow"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "basket_sync_merge_conflicts",
		Help: "Merge conflicts detected during checkout.",
	})
	reg.MustRegister(duration, success, failure, conflicts)
	return &SyncMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		conflicts: conflicts,
	}
}

// ObserveDuration records the duration for the named flow.
func (m *SyncMetrics) ObserveDuration(flow string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(flow)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named flow.
func (m *SyncMetrics) IncSuccess(flow string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(flow)).Inc()
}

// IncFailure increments the failure counter for the named flow.
func (m *SyncMetrics) IncFailure(flow string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(flow)).Inc()
}

// AddMergeConflicts counts conflicts surfaced to the buyer.
func (m *SyncMetrics) AddMergeConflicts(count int) {
	if m == nil || m.conflicts == nil || count <= 0 {
		return
	}
	m.conflicts.Add(float64(count))
}

func normalizeLabel(flow string) string {
	if flow == "" {
		return "unknown"
	}
	return flow
}
