package replay

import (
	"context"
	"math/rand"
	"time"
)

const maxRetryDelay = 30 * time.Second

// withRetry runs fn until it succeeds, with exponentially growing, jittered
// delays between attempts. maxRetries counts retries after the first attempt.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		// Up to 25% jitter keeps concurrent retriers from lockstepping.
		wait := delay + time.Duration(rand.Int63n(int64(delay)/4+1))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}
