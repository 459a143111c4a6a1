package resilience

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryConfig defines retry behavior configuration
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	JitterFraction  float64
	RetryableErrors func(error) bool
}

// DefaultRetryConfig returns a sensible default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    500 * time.Millisecond,
		MaxDelay:        30 * time.Second,
		BackoffFactor:   2.0,
		JitterFraction:  0.1,
		RetryableErrors: func(error) bool { return true },
	}
}

// RetryableFunc is a function that can be retried
type RetryableFunc func(ctx context.Context) error

// Retry executes fn with default retry configuration.
func Retry(ctx context.Context, fn RetryableFunc) error {
	return RetryWithConfig(ctx, DefaultRetryConfig(), fn)
}

// RetryWithConfig executes fn with exponential backoff and jitter until it
// succeeds, returns a non-retryable error, or attempts are exhausted.
func RetryWithConfig(ctx context.Context, config *RetryConfig, fn RetryableFunc) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if config.RetryableErrors != nil && !config.RetryableErrors(err) {
			return fmt.Errorf("non-retryable error: %w", err)
		}
		if attempt >= config.MaxAttempts {
			break
		}

		delay = nextBackoff(delay, config)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", config.MaxAttempts, lastErr)
}

func nextBackoff(currentDelay time.Duration, config *RetryConfig) time.Duration {
	next := time.Duration(float64(currentDelay) * config.BackoffFactor)
	if next > config.MaxDelay {
		next = config.MaxDelay
	}
	if config.JitterFraction > 0 {
		jitter := time.Duration(rand.Float64() * config.JitterFraction * float64(next))
		next += jitter
	}
	return next
}
