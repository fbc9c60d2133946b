package http

import (
	"errors"
	"fmt"
)

// OutcomeKind classifies the result of a single upstream fetch.
type OutcomeKind int

const (
	// OutcomeUnknown is the zero kind: the attempt produced no classification (e.g. it panicked).
	OutcomeUnknown OutcomeKind = iota
	OutcomeOK
	OutcomeNotFound
	OutcomeRateLimited
	OutcomeHTTPError
	OutcomeTimeout
	OutcomeNetworkError
	OutcomeInvalidShape
	OutcomeCanceled
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrHTTPStatus       = errors.New("unexpected http status")
	ErrTimeout          = errors.New("request timeout")
	ErrNetwork          = errors.New("network error")
	ErrInvalidShape     = errors.New("invalid response shape")
	ErrCanceled         = errors.New("request canceled")
	ErrRetriesExhausted = errors.New("max retries exceeded")
	ErrUnclassified     = errors.New("unclassified failure")
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeInvalidShape:
		return "invalid_shape"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Retryable reports whether another attempt may change the result.
func (k OutcomeKind) Retryable() bool {
	switch k {
	case OutcomeRateLimited, OutcomeHTTPError, OutcomeTimeout, OutcomeNetworkError, OutcomeUnknown:
		return true
	default:
		return false
	}
}

func (k OutcomeKind) sentinel() error {
	switch k {
	case OutcomeNotFound:
		return ErrNotFound
	case OutcomeRateLimited:
		return ErrRateLimited
	case OutcomeHTTPError:
		return ErrHTTPStatus
	case OutcomeTimeout:
		return ErrTimeout
	case OutcomeNetworkError:
		return ErrNetwork
	case OutcomeInvalidShape:
		return ErrInvalidShape
	case OutcomeCanceled:
		return ErrCanceled
	default:
		return ErrUnclassified
	}
}

// Outcome is the tagged result of a fetch: either OK with a value, or one failure kind.
type Outcome[T any] struct {
	Kind       OutcomeKind
	Value      T
	StatusCode int
	Cause      error
}

// OK wraps a successful value.
func OK[T any](v T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeOK, Value: v}
}

// Fail builds a failed outcome. status is only meaningful for HTTP-level failures.
func Fail[T any](kind OutcomeKind, status int, cause error) Outcome[T] {
	return Outcome[T]{Kind: kind, StatusCode: status, Cause: cause}
}

// Recast carries a failed outcome over to another value type.
func Recast[U, T any](o Outcome[T]) Outcome[U] {
	return Outcome[U]{Kind: o.Kind, StatusCode: o.StatusCode, Cause: o.Cause}
}

func (o Outcome[T]) IsOK() bool { return o.Kind == OutcomeOK }

func (o Outcome[T]) Retryable() bool { return o.Kind.Retryable() }

// Err returns nil for OK outcomes; otherwise an error wrapping the kind's sentinel.
func (o Outcome[T]) Err() error {
	if o.Kind == OutcomeOK {
		return nil
	}
	base := o.Kind.sentinel()
	if o.Kind == OutcomeHTTPError {
		base = fmt.Errorf("%w %d", base, o.StatusCode)
	}
	if o.Cause == nil || errors.Is(o.Cause, base) {
		return base
	}
	return fmt.Errorf("%w: %w", base, o.Cause)
}
