// Package resilience costruisce i circuit breaker condivisi da gateway e predictor.
package resilience

import (
	"time"

	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/agrisense/internal/config"
	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/metrics"
)

// NewBreaker trips after cfg.Failures consecutive failures and stays open for
// cfg.OpenFor. State changes are logged and exported on the breaker gauge.
func NewBreaker(name string, cfg config.BreakerConfig) *gobreaker.CircuitBreaker {
	fails := cfg.Failures
	if fails < 1 {
		fails = 1
	}
	openFor := cfg.OpenFor
	if openFor <= 0 {
		openFor = 10 * time.Second
	}
	metrics.BreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: cfg.Interval,
		Timeout:  openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(StateValue(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("resilience: circuit breaker state changed")
		},
	})
}

// StateValue maps a breaker state onto the gauge encoding.
func StateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
