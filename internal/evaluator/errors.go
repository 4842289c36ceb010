package evaluator

import (
	"context"
	"errors"
	"fmt"

	"github.com/fadilmartias/cv-matcher/internal/service"
)

type Kind string

const (
	KindRateLimited Kind = "rate-limited"
	KindTimeout     Kind = "timeout"
	KindMalformed   Kind = "malformed-output"
	KindUnavailable Kind = "unavailable"
)

var ErrBreakerOpen = errors.New("circuit breaker open")

// ProviderError is returned once the retry policy for a failure kind is
// exhausted.
type ProviderError struct {
	Kind     Kind
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("evaluation failed (%s) after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// KindOf reports the provider failure kind of err, or "" when err is not a
// ProviderError.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, service.ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, service.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, service.ErrEmptyResponse):
		return KindMalformed
	default:
		return KindUnavailable
	}
}
