package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusHandler returns the Prometheus exposition handler for the
// default registry. Pair it with an OTel SDK configured with the
// Prometheus exporter so the Metrics middleware feeds it.
func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}
