package metrics

import (
	"net/http"

	"github.com/nspcc-dev/assetdb/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewPrometheusService creates a service exposing the default prometheus
// registry (registry operation counters included) at /metrics.
func NewPrometheusService(cfg config.BasicService, log *zap.Logger) *Service {
	if log == nil {
		return nil
	}

	handler := promhttp.InstrumentMetricHandler(prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog: zap.NewStdLog(log.With(zap.String("service", "Prometheus"))),
		}))
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	return NewService("Prometheus", newServers(cfg, mux), cfg, log)
}
