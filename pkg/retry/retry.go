package retry

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Policy retries a call while Retryable reports true, up to MaxAttempts calls in total.
type Policy struct {
	MaxAttempts int
	// Retryable decides whether a failed attempt may be retried. Nil retries every error.
	Retryable func(error) bool
	// Backoff returns the delay before the given attempt (1-indexed, called for attempt >= 2).
	Backoff func(attempt int) time.Duration
	// Sleep waits for d or until ctx is done. Defaults to a timer honoring ctx.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is invoked after a retryable failure, before sleeping.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do runs fn until it succeeds, fails with a non-retryable error, or attempts run out.
// Non-retryable errors are returned unchanged.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			var delay time.Duration
			if p.Backoff != nil {
				delay = p.Backoff(attempt)
			}
			if p.OnRetry != nil {
				p.OnRetry(attempt-1, delay, last)
			}
			if delay > 0 {
				if err := sleep(ctx, delay); err != nil {
					return err
				}
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		last = err
	}
	return &ExhaustedError{Attempts: attempts, Err: last}
}

// Linear yields step*(attempt-1): no delay before the first call, step before the second, and so on.
func Linear(step time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt <= 1 {
			return 0
		}
		return step * time.Duration(attempt-1)
	}
}

// MessageContains matches errors whose text contains any of the markers, case-insensitively.
func MessageContains(markers ...string) func(error) bool {
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			lowered = append(lowered, strings.ToLower(m))
		}
	}
	return func(err error) bool {
		if err == nil {
			return false
		}
		text := strings.ToLower(err.Error())
		for _, m := range lowered {
			if strings.Contains(text, m) {
				return true
			}
		}
		return false
	}
}

// SleepContext blocks for d or until ctx is cancelled.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
