package gql

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Policy configures the retry engine. Immutable once constructed;
// DefaultPolicy is the process-wide default and callers may inject their
// own per operation.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
}

// DefaultPolicy returns the standard retry policy for API operations.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Factor:       2.0,
	}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("gql: retry max attempts must be >= 1, got %d", p.MaxAttempts)
	}

	if p.InitialDelay <= 0 {
		return fmt.Errorf("gql: retry initial delay must be positive, got %s", p.InitialDelay)
	}

	if p.MaxDelay < p.InitialDelay {
		return fmt.Errorf("gql: retry max delay %s is below initial delay %s", p.MaxDelay, p.InitialDelay)
	}

	if p.Factor <= 1 {
		return fmt.Errorf("gql: retry backoff factor must be > 1, got %g", p.Factor)
	}

	return nil
}

// backoff returns the delay before attempt n+1 (attempt is zero-based).
// Deterministic exponential growth capped at MaxDelay; no jitter so tests
// and operators can predict the schedule.
func (p Policy) backoff(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Factor, float64(attempt))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}

	return time.Duration(d)
}

// Retrier runs operations under a Policy with exponential backoff.
type Retrier struct {
	policy Policy
	logger *slog.Logger

	// sleepFunc is called to wait between attempts. Defaults to timeSleep.
	// Tests override this to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a Retrier with the given policy.
func NewRetrier(policy Policy, logger *slog.Logger) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Retrier{
		policy:    policy,
		logger:    logger,
		sleepFunc: timeSleep,
	}
}

// Do invokes fn up to MaxAttempts times, waiting the policy's backoff
// between attempts. Non-retryable classified errors abort immediately and
// propagate unchanged; after exhausting attempts the last error
// propagates. Do never suppresses the final error, only the retries.
func (r *Retrier) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := r.policy.backoff(attempt - 1)
			r.logger.Warn("retrying operation",
				slog.String("operation", name),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
				slog.String("error", lastErr.Error()),
			)

			if err := r.sleepFunc(ctx, backoff); err != nil {
				return fmt.Errorf("gql: %s canceled: %w", name, err)
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return lastErr
		}

		if !retryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

// DoValue is Do for operations that return a value.
func DoValue[T any](ctx context.Context, r *Retrier, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	err := r.Do(ctx, name, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)

		return fnErr
	})

	return result, err
}

// timeSleep waits for the given duration or until the context is canceled.
// It is the default sleepFunc for Retrier.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
