// Package retry provides a bounded retry mechanism with fixed backoff.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds configuration for the retryer.
type Config struct {
	MaxAttempts int           // Maximum number of attempts, including the first
	Backoff     time.Duration // Fixed delay between a failed attempt and its retry
	Name        string        // Name for logging
}

// Func is an operation that can be retried.
type Func func() error

// Retryer runs operations with a bounded attempt budget and a fixed delay
// between attempts.
type Retryer struct {
	config Config
	logger *logrus.Logger
	sleep  func(context.Context, time.Duration) error
}

// New creates a new retryer.
func New(config Config, logger *logrus.Logger) *Retryer {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.Backoff < 0 {
		config.Backoff = 0
	}
	if config.Name == "" {
		config.Name = "retryer"
	}

	return &Retryer{
		config: config,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Do executes fn up to MaxAttempts times. It returns nil on the first
// success, the context error if the context ends while waiting, and the last
// operation error once the attempt budget is exhausted.
func (r *Retryer) Do(ctx context.Context, fn Func) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			if attempt > 1 {
				r.logger.Infof("[%s] operation succeeded on attempt %d", r.config.Name, attempt)
			}
			return nil
		}
		lastErr = err
		r.logger.Warnf("[%s] attempt %d/%d failed: %v", r.config.Name, attempt, r.config.MaxAttempts, err)

		if attempt < r.config.MaxAttempts {
			if err := r.sleep(ctx, r.config.Backoff); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%s: all %d attempts failed: %w", r.config.Name, r.config.MaxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
