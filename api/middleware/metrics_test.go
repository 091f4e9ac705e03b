package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sakthi-t/bookscart/pkg/metrics"
)

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(reg)

	router := chi.NewRouter()
	router.Use(Metrics(httpMetrics))
	router.Get("/api/v1/books/{slug}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/api/v1/books/dune", "/api/v1/books/emma", "/nope"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sawPattern, sawUnmatched bool
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() != "route" {
					continue
				}
				switch lp.GetValue() {
				case "/api/v1/books/{slug}":
					sawPattern = true
				case "unmatched":
					sawUnmatched = true
				case "/api/v1/books/dune", "/nope":
					t.Fatalf("raw path leaked into route label: %s", lp.GetValue())
				}
			}
		}
	}
	if !sawPattern || !sawUnmatched {
		t.Fatalf("expected pattern and unmatched labels, pattern=%v unmatched=%v", sawPattern, sawUnmatched)
	}
}
