package http

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
)

// RetryPolicy bounds how often a fetch is attempted and how long to wait in between.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// OnRetry is called before each backoff wait with the 0-based index of the failed attempt.
	OnRetry func(attempt int, delay time.Duration, kind OutcomeKind, cause error)
}

// DefaultRetryPolicy returns 3 attempts with 1s, 2s backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Backoff returns BaseDelay * 2^attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if attempt < 0 {
		return base
	}
	if attempt > 30 {
		attempt = 30
	}
	return base * time.Duration(1<<attempt)
}

// WithRetry runs attempt until it yields a terminal outcome or MaxAttempts is reached.
// The last outcome is returned unchanged, except when no attempt produced a
// classification at all, in which case ErrRetriesExhausted is reported.
func WithRetry[T any](ctx context.Context, p RetryPolicy, attempt func(ctx context.Context) Outcome[T]) Outcome[T] {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var last Outcome[T]
	classified := false
	for i := 0; i < maxAttempts; i++ {
		last = safeAttempt(ctx, attempt)
		if last.Kind != OutcomeUnknown {
			classified = true
		}
		if !last.Retryable() || i == maxAttempts-1 {
			break
		}

		delay := p.Backoff(i)
		if p.OnRetry != nil {
			p.OnRetry(i, delay, last.Kind, last.Cause)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Fail[T](OutcomeCanceled, 0, ctx.Err())
		}
	}

	if !last.IsOK() && !classified {
		return Fail[T](OutcomeUnknown, 0, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, maxAttempts, last.Cause))
	}
	return last
}

func safeAttempt[T any](ctx context.Context, attempt func(ctx context.Context) Outcome[T]) (out Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = Fail[T](OutcomeUnknown, 0, fmt.Errorf("attempt panicked: %v", r))
		}
	}()
	return attempt(ctx)
}
