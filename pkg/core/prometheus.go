package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	// registryOps prometheus metric.
	registryOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of asset registry operations by kind and outcome",
			Name:      "registry_operations_total",
			Namespace: "assetdb",
		},
		[]string{"op", "result"},
	)
	// assetsCount prometheus metric.
	assetsCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of registered assets",
			Name:      "assets",
			Namespace: "assetdb",
		},
	)
	// issuedShares prometheus metric.
	issuedShares = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Total amount of shares issued (in the smallest units)",
			Name:      "issued_shares_total",
			Namespace: "assetdb",
		},
	)
	// burntShares prometheus metric.
	burntShares = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Total amount of shares burnt (in the smallest units)",
			Name:      "burnt_shares_total",
			Namespace: "assetdb",
		},
	)
)

func init() {
	prometheus.MustRegister(
		registryOps,
		assetsCount,
		issuedShares,
		burntShares,
	)
}

func updateOpMetric(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	registryOps.WithLabelValues(op, result).Inc()
}

func updateAssetsCountMetric(n int) {
	assetsCount.Set(float64(n))
}
