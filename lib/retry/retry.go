package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

// Policy describes geometric backoff: InitialDelay * Base^attempt, capped
// at MaxDelay. No jitter; the rate limiter in front of the portal already
// spaces requests out.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Base         float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Base:         2,
	}
}

func (p Policy) delay(attempt int) time.Duration {
	d := time.Duration(float64(p.InitialDelay) * math.Pow(p.Base, float64(attempt)))
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying: Do returns it immediately.
// Use it for outcomes like "the portal answered and said not found", as
// opposed to transport failures.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op until it succeeds, the policy's attempts are exhausted, the
// error is Permanent, or ctx is done. The last error is returned as-is.
func Do[T any](ctx context.Context, policy Policy, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		lastErr = err

		if attempt == policy.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(policy.delay(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
		timer.Stop()
	}

	return zero, lastErr
}

// RetryableStatus reports whether an HTTP status is worth another attempt:
// connection-level failures surface as 0, and 429/5xx are the portal
// shedding load.
func RetryableStatus(status int) bool {
	if status == 0 || status == 429 {
		return true
	}
	return status >= 500 && status < 600
}
