package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TaskMetrics follows the detached jobs the API starts after a response, such
// as social profile enrichment after registration.
type TaskMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

func NewTaskMetrics(reg prometheus.Registerer) *TaskMetrics {
	m := &TaskMetrics{}
	if reg == nil {
		return m
	}
	byTask := []string{"task"}
	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "task_duration_seconds",
		Help:    "Wall time of background tasks.",
		Buckets: prometheus.DefBuckets,
	}, byTask)
	m.success = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "task_success_total",
		Help: "Background tasks that finished without error.",
	}, byTask)
	m.failure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "task_failure_total",
		Help: "Background tasks that returned an error or panicked.",
	}, byTask)
	reg.MustRegister(m.duration, m.success, m.failure)
	return m
}

func (m *TaskMetrics) ObserveDuration(task string, d time.Duration) {
	if m != nil && m.duration != nil {
		m.duration.WithLabelValues(labelOrUnknown(task)).Observe(d.Seconds())
	}
}

func (m *TaskMetrics) IncSuccess(task string) {
	if m != nil {
		bump(m.success, task)
	}
}

func (m *TaskMetrics) IncFailure(task string) {
	if m != nil {
		bump(m.failure, task)
	}
}

func bump(vec *prometheus.CounterVec, task string) {
	if vec != nil {
		vec.WithLabelValues(labelOrUnknown(task)).Inc()
	}
}

func labelOrUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
