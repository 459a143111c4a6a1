package timeout

import (
	"context"
	"fmt"
	"time"
)

const defaultTimeout = 30 * time.Second

// Config holds per-dependency operation timeouts.
type Config struct {
	Default  time.Duration
	Database time.Duration
	Redis    time.Duration
	Message  time.Duration
}

// DefaultConfig returns the timeouts used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		Default:  defaultTimeout,
		Database: 5 * time.Second,
		Redis:    2 * time.Second,
		Message:  30 * time.Second,
	}
}

// WithTimeout creates a context with the given timeout, falling back to the
// default for non-positive values.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Run executes fn under a deadline. The caller regains control when the
// deadline passes even if fn is still blocked; fn observes the cancelled
// context and is expected to abandon its work.
func Run(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	runCtx, cancel := WithTimeout(ctx, timeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- fn(runCtx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-runCtx.Done():
		return fmt.Errorf("operation timed out after %v: %w", timeout, runCtx.Err())
	}
}
