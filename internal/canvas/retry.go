package canvas

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/abhisek/quizmaker/internal/config"
)

// retry runs fn until it succeeds, returns an error retryable rejects, or
// runs out of attempts, backing off exponentially with jitter between
// attempts.
func retry(ctx context.Context, cfg config.RetryConfig, retryable func(error) bool, fn func() error) error {
	attempts := max(cfg.MaxAttempts, 1)
	var lastErr error

	for attempt := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}

		// Last attempt: don't sleep, just return the error.
		if attempt == attempts-1 {
			break
		}

		wait := backoff(cfg, attempt, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return lastErr
}

// shouldRetry determines if an error is retryable.
func shouldRetry(err error) bool {
	// Context errors are never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var st *ErrStatus
	if errors.As(err, &st) {
		return st.Temporary()
	}

	var unavail *ErrUnavailable
	return errors.As(err, &unavail)
}

// rateLimited reports whether the server refused the request with 429.
// Only then is a non-idempotent request known not to have been applied.
func rateLimited(err error) bool {
	var st *ErrStatus
	return errors.As(err, &st) && st.StatusCode == http.StatusTooManyRequests
}

// backoff computes the wait duration for the given attempt.
func backoff(cfg config.RetryConfig, attempt int, err error) time.Duration {
	// Respect Retry-After when the server sends one.
	var st *ErrStatus
	if errors.As(err, &st) && st.RetryAfter > 0 {
		return st.RetryAfter
	}

	mult := cfg.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := float64(cfg.InitialWait) * math.Pow(mult, float64(attempt))
	if cfg.MaxWait > 0 && wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
