package retry

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	r := New(Config{MaxAttempts: 5, Backoff: time.Millisecond, Name: "test"}, testLogger())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	r := New(Config{MaxAttempts: 5, Backoff: time.Millisecond, Name: "test"}, testLogger())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustsExactlyMaxAttempts(t *testing.T) {
	r := New(Config{MaxAttempts: 4, Backoff: time.Millisecond, Name: "test"}, testLogger())

	permanent := errors.New("permanent")
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return permanent
	})

	if calls != 4 {
		t.Errorf("Expected exactly 4 attempts, got %d", calls)
	}
	if !errors.Is(err, permanent) {
		t.Errorf("Expected the last operation error to be wrapped, got %v", err)
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	r := New(Config{MaxAttempts: 10, Backoff: time.Minute, Name: "test"}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		// Cancel while Do sleeps between attempts.
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func() error {
		calls++
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", calls)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	r := New(Config{}, testLogger())

	if r.config.MaxAttempts != 3 {
		t.Errorf("Expected default MaxAttempts 3, got %d", r.config.MaxAttempts)
	}
	if r.config.Name != "retryer" {
		t.Errorf("Expected default name, got %q", r.config.Name)
	}
}
