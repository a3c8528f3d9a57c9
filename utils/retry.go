package utils

import (
	"fmt"
	"time"
)

// RetryPolicy runs an operation up to MaxRetries+1 times with a fixed
// Backoff between attempts.
//
// Only errors accepted by Retryable are retried; any other error is
// returned immediately. A nil Retryable retries every error.
//
// Usage:
//
//	policy := utils.RetryPolicy{MaxRetries: 2, Backoff: 2 * time.Second}
//	err := policy.Do(func() error {
//	    return waitForContent()
//	})
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	Retryable  func(error) bool

	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Do returns nil on the first successful attempt, the first non-retryable
// error, or the last error wrapped once attempts are exhausted.
func (p RetryPolicy) Do(fn func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	attempts := p.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}

		if attempt < attempts {
			Debug("Attempt %d/%d failed: %v, retrying in %v", attempt, attempts, lastErr, p.Backoff)
			sleep(p.Backoff)
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}
