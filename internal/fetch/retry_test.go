package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := DoWithRetry(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return &StatusError{Code: 503, URL: "http://x"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := DoWithRetry(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, func() error {
		calls++
		return &StatusError{Code: 500, URL: "http://x"}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoWithRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := DoWithRetry(context.Background(), Policy{MaxAttempts: 4, BaseDelay: time.Millisecond}, func() error {
		calls++
		return &StatusError{Code: 404, URL: "http://x"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DoWithRetry(ctx, Policy{MaxAttempts: 3, BaseDelay: time.Second}, func() error {
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetriable(t *testing.T) {
	assert.True(t, IsRetriable(&StatusError{Code: 429}))
	assert.True(t, IsRetriable(&StatusError{Code: 502}))
	assert.False(t, IsRetriable(&StatusError{Code: 400}))
	assert.False(t, IsRetriable(&StatusError{Code: 404}))
	assert.True(t, IsRetriable(errors.New("connection reset")))
}
