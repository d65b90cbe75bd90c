package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_Success(t *testing.T) {
	attempts := 0
	err := Backoff{MaxAttempts: 3, BaseDelay: time.Millisecond}.Do(context.Background(), func() error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestBackoff_EventualSuccess(t *testing.T) {
	attempts := 0
	err := Backoff{MaxAttempts: 5, BaseDelay: time.Millisecond}.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestBackoff_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	err := Backoff{MaxAttempts: 3, BaseDelay: time.Millisecond}.Do(context.Background(), func() error {
		attempts++
		return expectedErr
	})
	assert.Equal(t, expectedErr, err, "should return the last error unchanged")
	assert.Equal(t, 3, attempts)
}

func TestBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Backoff{MaxAttempts: 10, BaseDelay: time.Millisecond}.Do(ctx, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestBackoff_InvalidMaxAttempts(t *testing.T) {
	called := false
	err := Backoff{}.Do(context.Background(), func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	assert.False(t, called)
}

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, b.delay(0))
	assert.Equal(t, 20*time.Millisecond, b.delay(1))
	assert.Equal(t, 40*time.Millisecond, b.delay(2))
	assert.Equal(t, 50*time.Millisecond, b.delay(3), "capped")
	assert.Equal(t, 50*time.Millisecond, b.delay(70), "overflow is capped")
}
