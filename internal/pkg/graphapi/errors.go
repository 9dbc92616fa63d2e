package graphapi

import (
	"errors"
	"fmt"
	"time"
)

// Graph API error codes that mark a request as malformed or unauthorized.
// Re-dispatching those is pointless, so the retry loop surfaces them at once.
const (
	CodeInvalidParameter = 100
	CodeInvalidToken     = 190
)

// APIError is a structured rejection returned by the Graph API.
type APIError struct {
	Message string
	Code    int
	Subcode int
}

func (e *APIError) Error() string {
	if e.Subcode != 0 {
		return fmt.Sprintf("graph api error (code %d, subcode %d): %s", e.Code, e.Subcode, e.Message)
	}
	return fmt.Sprintf("graph api error (code %d): %s", e.Code, e.Message)
}

// Retryable reports whether another attempt could plausibly succeed.
func (e *APIError) Retryable() bool {
	switch e.Code {
	case CodeInvalidParameter, CodeInvalidToken:
		return false
	}
	return true
}

// RateLimitError is returned when the local admission controller denies a call
// and the wait until the window frees up exceeds the bounded wait budget.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter.Round(time.Second))
}

// IsRateLimited reports whether err is a local rate-limit denial.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// transientError wraps a network-level failure (connect, timeout, reset) that
// the transport retries before surfacing.
type transientError struct {
	err error
}

func (e *transientError) Error() string {
	return fmt.Sprintf("transient network error: %v", e.err)
}

func (e *transientError) Unwrap() error {
	return e.err
}

// IsTransient reports whether err is a network-level failure.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
