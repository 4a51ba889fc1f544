package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprocure/tenderflow/internal/service"
)

func fastRetryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithRetryStopsOnNonRetryableError(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0

	err := WithRetry(context.Background(), func() error {
		calls++
		return &RetryableError{Err: sentinel, Retryable: false}
	}, fastRetryOptions())

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRetriesUntilSuccess(t *testing.T) {
	calls := 0

	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errors.New("transient"), Retryable: true}
		}
		return nil
	}, fastRetryOptions())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustionKeepsErrorChain(t *testing.T) {
	calls := 0

	err := WithRetry(context.Background(), func() error {
		calls++
		return fmt.Errorf("list tenders: %w", ErrRateLimit)
	}, fastRetryOptions())

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, ErrMaxRetries)
	// The wrapped cause must survive exhaustion so sentinel checks keep
	// working on the caller side.
	assert.ErrorIs(t, err, ErrRateLimit)
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return &RetryableError{Err: errors.New("transient"), Retryable: true}
	}, fastRetryOptions())

	assert.ErrorIs(t, err, context.Canceled)
}
