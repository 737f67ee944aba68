package resilience

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}, testLogger())

	attempts := 0
	err := exec.Execute(context.Background(), "gcs.store", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return pkgerrors.New(pkgerrors.CodeStorage, "upstream 503")
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryValidationFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		BreakerEnabled:      false,
	}, testLogger())

	attempts := 0
	err := exec.Execute(context.Background(), "gcs.store", func(context.Context) error {
		attempts++
		return pkgerrors.New(pkgerrors.CodeValidation, "bad object name")
	}, nil)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         time.Millisecond,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}, testLogger())

	errTemp := errors.New("connection reset")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "gcs.delete", func(context.Context) error {
			return errTemp
		}, nil)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "gcs.delete", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if !pkgerrors.Is(err, pkgerrors.CodeStorage) {
		t.Fatalf("expected open circuit surfaced as storage error, got %v", err)
	}
}

func TestClassifyAppErrorIgnoresCancellation(t *testing.T) {
	class := ClassifyAppError(context.Canceled)
	if class.Retryable || class.RecordFailure {
		t.Fatalf("cancellation must not be retried or recorded: %+v", class)
	}
}
