package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/dgallion1/articleflow/internal/pathstore"
)

const MaxRetries = 3

// IsRetryable reports whether the store signalled a transient failure.
func IsRetryable(err error) bool {
	var retryErr *pathstore.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := min(time.Duration(1<<uint(attempt))*time.Second, 30*time.Second)
	return base + time.Duration(rand.Int63n(int64(base)/2))
}

// retry calls fn up to MaxRetries times while it fails with a retryable
// error, sleeping wait(attempt) in between. onRetry sees every failed
// attempt that will be retried.
func retry(ctx context.Context, wait func(int) time.Duration, onRetry func(int, error), fn func() error) error {
	var err error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == MaxRetries-1 {
			break
		}
		onRetry(attempt, err)
		select {
		case <-time.After(wait(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
