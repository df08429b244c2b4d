package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldline/crm-bff-go/internal/infra/resilience"
)

var errBackendDown = errors.New("backend unavailable")

func TestRetryWithBackoff_FirstTryWins(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
	}

	attempts := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
}

func TestRetryWithBackoff_RecoversFromTransientFailure(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
	}

	attempts := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errBackendDown
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoff_GivesUpEventually(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     2,
		InitialBackoff: 10 * time.Millisecond,
	}

	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		return errBackendDown
	})

	if err == nil {
		t.Fatal("expected error once retries are exhausted")
	}
}

func TestRetryWithBackoff_StopsOnCancelledContext(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     5,
		InitialBackoff: 1 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		return errBackendDown
	})

	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestBulkhead_LimitsInFlightCalls(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	for i := 0; i < 2; i++ {
		if err := bh.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i+1, err)
		}
	}

	// A full bulkhead blocks until a slot frees up.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := bh.Acquire(ctx); err == nil {
		t.Fatal("expected timeout while the bulkhead is full")
	}

	bh.Release()
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}
