// Package metrics espone i contatori Prometheus dei servizi agrisense.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrisense_api_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agrisense_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	EfficiencyScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agrisense_efficiency_score",
			Help:    "Final efficiency scores produced by the engine",
			Buckets: []float64{0.2, 0.4, 0.6, 0.8, 1.0},
		},
	)

	EfficiencyDegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agrisense_efficiency_degraded_total",
			Help: "Efficiency evaluations that returned the degraded result",
		},
	)

	PredictorFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrisense_predictor_fallback_total",
			Help: "Predictions served by the rule-based fallback, by model",
		},
		[]string{"model"},
	)

	ReadingsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrisense_readings_consumed_total",
			Help: "Farm readings consumed by the analyzer, by outcome",
		},
		[]string{"outcome"},
	)

	ScoresWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agrisense_scores_written_total",
			Help: "Efficiency points written to InfluxDB",
		},
	)

	StoreWriteErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agrisense_store_write_errors_total",
			Help: "Failed InfluxDB writes",
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agrisense_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)
