package fetch

import (
	"context"
	"errors"
	"time"
)

// Policy controls retry behavior for upstream calls.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	IsRetriable func(error) bool
}

// DefaultPolicy retries transient upstream failures with exponential backoff.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   250 * time.Millisecond,
	IsRetriable: IsRetriable,
}

// IsRetriable reports whether an error is worth retrying: rate limiting,
// server-side failures, or transport errors. Client errors (4xx other
// than 429) are permanent.
func IsRetriable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		if se.Code == 429 {
			return true
		}
		return se.Code >= 500
	}
	// Network/transport errors are retriable by default
	return true
}

// DoWithRetry runs fn until it succeeds, the policy is exhausted, or the
// context is cancelled. Backoff doubles per attempt from BaseDelay.
func DoWithRetry(ctx context.Context, p Policy, fn func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	isRetriable := p.IsRetriable
	if isRetriable == nil {
		isRetriable = IsRetriable
	}

	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isRetriable(err) {
			return err
		}
		if attempt < p.MaxAttempts-1 {
			d := p.BaseDelay * (1 << attempt)
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}
