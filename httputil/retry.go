package httputil

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"skaters/config"
)

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the real Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryPolicy retries an operation with multiplicative backoff.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64       // fraction of the delay added at random, 0 disables
	Timeout      time.Duration // per attempt, 0 disables
	Sleep        Sleeper
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Timeout:      30 * time.Second,
		Sleep:        SleepContext,
	}
}

func RetryPolicyFromConfig(rc config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  rc.MaxAttempts,
		InitialDelay: time.Duration(rc.InitialDelayMs) * time.Millisecond,
		MaxDelay:     time.Duration(rc.MaxDelayMs) * time.Millisecond,
		Multiplier:   rc.BackoffMultiplier,
		Jitter:       rc.Jitter,
		Timeout:      time.Duration(rc.TimeoutSec) * time.Second,
		Sleep:        SleepContext,
	}
}

// Delay is the pause before the given retry, counting the first retry as 1.
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	d := float64(p.InitialDelay)
	for i := 1; i < retry; i++ {
		d *= p.Multiplier
	}
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		d += d * p.Jitter * rand.Float64()
	}
	return time.Duration(d)
}

// Do runs fn until it succeeds, returns a permanent error, or the attempt budget is spent.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.Delay(attempt-1)); err != nil {
				return err
			}
		}

		attemptCtx := ctx
		cancel := func() {}
		if p.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt < attempts {
			log.Printf("Warning: %s failed (attempt %d/%d): %v", op, attempt, attempts, err)
		}
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", op, attempts, lastErr)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsRetryable reports whether err is a transient failure. Network errors, timeouts
// and non-2xx responses are retried; errors wrapped with Permanent are not.
func IsRetryable(err error) bool {
	var perm *permanentError
	return err != nil && !errors.As(err, &perm)
}
