package translator

import (
	"context"
	"time"

	"transsrt/internal/services"
)

const (
	defaultMaxAttempts = 3
	defaultMinDelay    = 2 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// RetryPolicy decides whether a failed engine attempt is repeated and how long
// to wait first. Only rate_limit and timeout failures are retried.
type RetryPolicy struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns 3 attempts with 2s..10s exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: defaultMaxAttempts, MinDelay: defaultMinDelay, MaxDelay: defaultMaxDelay}
}

// Decide reports the wait before attempt+1 after attempt (1-based) failed
// with err, or false when the chunk should fail now.
func (p RetryPolicy) Decide(attempt int, err error) (time.Duration, bool) {
	if err == nil || attempt >= p.attempts() {
		return 0, false
	}
	if !services.Retryable(err) {
		return 0, false
	}
	if hint, ok := services.RetryAfter(err); ok {
		return p.capDelay(hint), true
	}
	return p.backoffDelay(attempt), true
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// backoffDelay doubles MinDelay per prior attempt: attempt 1 -> min,
// attempt 2 -> min*2, attempt 3 -> min*4, capped at MaxDelay.
func (p RetryPolicy) backoffDelay(attempt int) time.Duration {
	base := p.MinDelay
	if base <= 0 {
		return 0
	}
	if attempt <= 0 {
		attempt = 1
	}
	maxDelay := p.maxDelay()
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return p.capDelay(delay)
}

func (p RetryPolicy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay := p.maxDelay(); delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (p RetryPolicy) maxDelay() time.Duration {
	if p.MaxDelay > 0 {
		return p.MaxDelay
	}
	return defaultMaxDelay
}

// sleepContext waits for delay or until ctx is done. A non-nil sleeper
// replaces the timer (tests pass one to avoid real waits).
func sleepContext(ctx context.Context, delay time.Duration, sleeper func(time.Duration)) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if sleeper != nil {
		sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
