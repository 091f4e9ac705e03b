package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry bundles the service collectors on one prometheus registry.
type Registry struct {
	Registry *prometheus.Registry
	HTTP     *HTTPMetrics
	Checkout *CheckoutMetrics
	Tasks    *TaskMetrics
}

// NewRegistry builds a fresh registry with runtime collectors and the service metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{
		Registry: reg,
		HTTP:     NewHTTPMetrics(reg),
		Checkout: NewCheckoutMetrics(reg),
		Tasks:    NewTaskMetrics(reg),
	}
}
