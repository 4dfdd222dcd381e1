package util

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(threshold, reset, time.Minute, nil, zap.NewNop())
	cb.now = clock.Now
	return cb, clock
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	cb.RecordFailure(0)
	cb.RecordFailure(0)
	if !cb.CanExecute() {
		t.Fatalf("expected circuit to stay closed below threshold")
	}

	cb.RecordFailure(0)
	if cb.CanExecute() {
		t.Fatalf("expected circuit to open at threshold")
	}

	status := cb.GetStatus()
	if status.State != CircuitStateOpen || status.NextRetryTime == nil {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestCircuitBreakerHalfOpensAfterTimeoutAndCloses(t *testing.T) {
	cb, clock := newTestBreaker(1, time.Minute)

	cb.RecordFailure(0)
	if cb.GetState() != CircuitStateOpen {
		t.Fatalf("expected open")
	}

	clock.now = clock.now.Add(61 * time.Second)
	if cb.GetState() != CircuitStateHalfOpen {
		t.Fatalf("expected half-open after reset timeout")
	}

	cb.RecordSuccess()
	if cb.GetState() != CircuitStateClosed {
		t.Fatalf("expected closed after success in half-open")
	}
}

func TestCircuitBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb, clock := newTestBreaker(2, time.Minute)

	cb.RecordFailure(0)
	cb.RecordFailure(0)
	clock.now = clock.now.Add(2 * time.Minute)
	if cb.GetState() != CircuitStateHalfOpen {
		t.Fatalf("expected half-open")
	}

	cb.RecordFailure(5 * time.Minute)
	if cb.GetState() != CircuitStateOpen {
		t.Fatalf("expected reopen after half-open failure")
	}

	clock.now = clock.now.Add(2 * time.Minute)
	if cb.GetState() != CircuitStateOpen {
		t.Fatalf("custom timeout should keep the circuit open longer")
	}
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Minute)

	cb.RecordFailure(0)
	cb.RecordSuccess()
	cb.RecordFailure(0)
	if !cb.CanExecute() {
		t.Fatalf("failures separated by a success must not open the circuit")
	}

	cb.Reset()
	if cb.GetStatus().FailureCount != 0 {
		t.Fatalf("expected reset to clear failures")
	}
}
