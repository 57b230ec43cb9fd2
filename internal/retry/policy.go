package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 30 * time.Second
	DefaultMinDelay    = 100 * time.Millisecond
	DefaultJitter      = 0.25
)

// Policy bounds how often and how fast a call is retried.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// BaseDelay is the wait after the first failed attempt.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth before jitter.
	MaxDelay time.Duration

	// MinDelay is the floor applied after jitter.
	MinDelay time.Duration

	// Jitter is the relative spread applied to each delay (0.25 = ±25%).
	Jitter float64

	// Limiter, if set, is waited on before every attempt.
	Limiter *rate.Limiter

	// OnRetry is called before sleeping for another attempt.
	OnRetry func(attempt int, delay time.Duration, err error)

	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64

	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the standard policy: three attempts, 1s base delay
// doubling up to 30s, ±25% jitter, 100ms floor.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		MinDelay:    DefaultMinDelay,
		Jitter:      DefaultJitter,
	}
}

// NoRetry returns a policy that makes exactly one attempt.
func NoRetry() Policy {
	p := DefaultPolicy()
	p.MaxAttempts = 1
	return p
}

// Delay returns the wait after failed attempt n (1-based):
// min(base*2^(n-1), max) with jitter, never below MinDelay.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}

	d := p.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			break
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}

	if p.Jitter > 0 {
		r := p.random()
		factor := 1 + p.Jitter*(2*r-1)
		d = time.Duration(float64(d) * factor)
	}

	if d < p.MinDelay {
		d = p.MinDelay
	}
	return d
}

func (p Policy) random() float64 {
	if p.Rand != nil {
		return p.Rand()
	}
	return rand.Float64()
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts
// are exhausted, or ctx is done. The last error from fn is returned unchanged.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				if lastErr != nil {
					return zero, lastErr
				}
				return zero, err
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt >= attempts || !Retryable(err) || ctx.Err() != nil {
			return zero, err
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if p.sleep(ctx, delay) != nil {
			return zero, err
		}
	}
}
