package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes.
const (
	CheckoutOutcomeSuccess           = "success"
	CheckoutOutcomeEmptyCart         = "empty_cart"
	CheckoutOutcomeInsufficientStock = "insufficient_stock"
	CheckoutOutcomeError             = "error"
)

// CheckoutMetrics counts checkout attempts by outcome and times them.
type CheckoutMetrics struct {
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts partitioned by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Checkout latency, including time spent waiting on stock row locks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(outcomes, duration)
	return &CheckoutMetrics{outcomes: outcomes, duration: duration}
}

// Observe records one checkout attempt.
func (m *CheckoutMetrics) Observe(outcome string, duration time.Duration) {
	if m == nil || m.outcomes == nil {
		return
	}
	outcome = labelOrUnknown(outcome)
	m.outcomes.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}
