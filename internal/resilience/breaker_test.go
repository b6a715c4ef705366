package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/agrisense/internal/config"
)

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	cb := NewBreaker("test-upstream", config.BreakerConfig{Failures: 2, OpenFor: time.Minute})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(func() (any, error) { return nil, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}
	if _, err := cb.Execute(func() (any, error) { return "ok", nil }); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
}

func TestBreakerDefaults(t *testing.T) {
	cb := NewBreaker("zero", config.BreakerConfig{})
	_, _ = cb.Execute(func() (any, error) { return nil, errors.New("x") })
	if cb.State() != gobreaker.StateOpen {
		t.Errorf("a zero failure threshold should behave as 1, state = %v", cb.State())
	}
}

func TestStateValue(t *testing.T) {
	tests := []struct {
		s    gobreaker.State
		want float64
	}{
		{gobreaker.StateClosed, 0},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateOpen, 2},
	}
	for _, tt := range tests {
		if got := StateValue(tt.s); got != tt.want {
			t.Errorf("StateValue(%v) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
