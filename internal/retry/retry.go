// Package retry runs an operation again after transient failures, waiting a
// fixed delay between attempts.
package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"
)

// Config defines fixed-delay retry behavior.
type Config struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// Delay is the wait between two attempts.
	Delay time.Duration
}

// DefaultConfig returns 3 retries spaced 1s apart.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries: 3,
		Delay:      time.Second,
	}
}

// DoWithResult executes fn until it succeeds, fails with a non-retryable
// error, or MaxRetries extra attempts have been made. After the last attempt
// the last error is returned unchanged.
//
// Waiting between attempts stops when ctx is done; the context error is then
// returned. An attempt already in flight is not interrupted by this package.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func(attempt int) (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var result T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		r, err := fn(attempt)
		if err == nil {
			return r, nil
		}
		lastErr = err
		result = r

		if !IsRetryable(err) || attempt == cfg.MaxRetries {
			break
		}

		timer := time.NewTimer(cfg.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		}
	}

	return result, lastErr
}

// Do is DoWithResult for operations without a result.
func Do(ctx context.Context, cfg *Config, fn func(attempt int) error) error {
	_, err := DoWithResult(ctx, cfg, func(attempt int) (struct{}, error) {
		return struct{}{}, fn(attempt)
	})
	return err
}

// RetryableError is implemented by errors that declare their retryability.
type RetryableError interface {
	error
	IsRetryable() bool
}

// IsRetryable determines if an error is transient and worth retrying.
//
// Order of checks:
//  1. cancellation: never retried
//  2. an error in the chain implementing RetryableError decides
//  3. transport failures (net.Error, *url.Error), timeouts included, are retried
//  4. everything else is permanent
//
// A timed-out attempt is retried; if the caller's own context has expired
// DoWithResult stops at the next wait anyway.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var re RetryableError
	if errors.As(err, &re) {
		return re.IsRetryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return false
}
