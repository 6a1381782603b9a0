package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// RateLimitError indicates the source is rate limiting us. Retryable.
type RateLimitError struct {
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (status %d)", e.StatusCode)
}

// TransientError marks a search failure worth retrying with backoff.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError aborts the whole run immediately. Hint tells the operator how
// to remediate.
type FatalError struct {
	Reason string
	Hint   string
}

func (e *FatalError) Error() string {
	if e.Hint == "" {
		return e.Reason
	}
	return e.Reason + " (" + e.Hint + ")"
}

// ParseError marks a single malformed listing; the listing is dropped and
// the job continues.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrNoListings is returned when a search yields an empty or unreadable
// result panel. Retryable: the source intermittently serves blank panels.
var ErrNoListings = errors.New("no listings in response")

// IsRetryable classifies a search error. Context cancellation and fatal
// errors never retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var tr *TransientError
	if errors.As(err, &tr) {
		return true
	}
	if errors.Is(err, ErrNoListings) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
