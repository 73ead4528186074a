package services

import (
	"context"
	"fmt"
	"time"

	"stock-valuator/observability"
)

// RetryConfig controls WithRetry's exponential backoff
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries:     2,
	InitialBackoff: 200 * time.Millisecond,
	MaxBackoff:     2 * time.Second,
}

// WithRetry calls fn until it succeeds, returns a permanent error (see
// Retryable) or runs out of attempts. Permanent errors are returned as is.
func WithRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
			case <-time.After(backoff):
			}

			backoff = min(backoff*2, config.MaxBackoff)
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}

		lastErr = err
		if attempt < config.MaxRetries {
			observability.Debug("retrying after failure",
				"attempt", attempt+1,
				"max_retries", config.MaxRetries,
				"error", err)
		}
	}

	return fmt.Errorf("failed after %d retries: %w", config.MaxRetries, lastErr)
}
