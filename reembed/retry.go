package reembed

import (
	"context"
	"time"
)

// Backoff retries an operation with exponentially growing delays.
type Backoff struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is the wait after the first failure. It doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration
}

// delay returns the wait that follows the given failed attempt (0-based).
func (b Backoff) delay(attempt int) time.Duration {
	d := b.BaseDelay << attempt
	if d < b.BaseDelay {
		// shifted past the int64 range
		d = b.MaxDelay
	}
	if b.MaxDelay > 0 && d > b.MaxDelay {
		d = b.MaxDelay
	}
	return d
}

// Do runs op until it succeeds, MaxAttempts is exhausted or ctx is done.
// The last error from op is returned unchanged.
func (b Backoff) Do(ctx context.Context, op func() error) error {
	if b.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var err error
	for attempt := 0; attempt < b.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = op(); err == nil {
			return nil
		}
		if attempt == b.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(b.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
