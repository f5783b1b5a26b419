// Package retry polls an operation at a fixed interval until it succeeds,
// fails permanently or runs out of time. It is only used where waiting is
// explicitly requested; nothing in the store or migration paths retries.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loykin/fsapi/internal/common"
	"github.com/loykin/fsapi/internal/constants"
)

// Config holds polling bounds
type Config struct {
	Timeout  time.Duration // Overall deadline
	Interval time.Duration // Pause between attempts
	// Retryable decides whether an error is worth another attempt.
	// Nil means every error is retried.
	Retryable func(error) bool
}

// DefaultConfig returns the db:wait defaults
func DefaultConfig() Config {
	return Config{
		Timeout:  constants.DefaultWaitTimeout,
		Interval: constants.DefaultWaitInterval,
	}
}

func (c Config) normalized() Config {
	if c.Timeout <= 0 {
		c.Timeout = constants.DefaultWaitTimeout
	}
	if c.Interval <= 0 {
		c.Interval = constants.DefaultWaitInterval
	}
	return c
}

func (c Config) isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if c.Retryable == nil {
		return true
	}
	return c.Retryable(err)
}

// Operation is a single attempt
type Operation func(ctx context.Context) error

// Until runs op until it returns nil. It returns the last error wrapped once
// the timeout elapses, the context is cancelled or op fails permanently.
func Until(ctx context.Context, cfg Config, op Operation) error {
	cfg = cfg.normalized()
	logger := common.GetLogger().WithComponent("retry")

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if !cfg.isRetryable(err) {
			logger.Debug("operation failed with non-retryable error", "error", err, "attempt", attempt)
			return err
		}

		logger.Debug("operation failed, retrying", "error", err, "attempt", attempt, "retry_delay", cfg.Interval)
		timer := time.NewTimer(cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("gave up after %d attempts in %s: %w", attempt, cfg.Timeout, err)
		case <-timer.C:
		}
	}
}
