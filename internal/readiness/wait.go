package readiness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/giantswarm/realmenv/internal/sentinel"
)

const (
	// ErrIntervalNotPositive indicates a non-positive poll interval.
	ErrIntervalNotPositive = sentinel.Error("interval must be positive")

	// ErrTimeoutNotPositive indicates a non-positive timeout.
	ErrTimeoutNotPositive = sentinel.Error("timeout must be positive")

	// ErrTimeout indicates the check never passed within the timeout.
	ErrTimeout = sentinel.Error("not ready before timeout")

	// ErrExited indicates the watched container stopped before it became ready.
	ErrExited = sentinel.Error("exited before becoming ready")
)

// Check reports whether the target is ready. attempt starts at 1. A non-nil
// error aborts the wait.
type Check func(ctx context.Context, attempt int) (ready bool, err error)

// Config configures Wait.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
	Name     string // for logs and errors
	Logger   *slog.Logger

	// Exited, when non-nil, aborts the wait as soon as it is closed.
	Exited <-chan struct{}
}

// Wait calls check every Interval until it reports ready, returns an error,
// Exited is closed, or Timeout elapses. A timeout is reported as ErrTimeout
// unless ctx itself was canceled.
func Wait(ctx context.Context, cfg Config, check Check) error {
	if cfg.Name == "" {
		return errors.New("wait: name must not be empty")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrIntervalNotPositive)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrTimeoutNotPositive)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	start := time.Now()
	attempt := 0
	err := wait.PollUntilContextTimeout(ctx, cfg.Interval, cfg.Timeout, true,
		func(pollCtx context.Context) (bool, error) {
			if cfg.Exited != nil {
				select {
				case <-cfg.Exited:
					return false, fmt.Errorf("%s: %w", cfg.Name, ErrExited)
				default:
				}
			}

			attempt++
			ready, err := check(pollCtx, attempt)
			if err != nil {
				return false, err
			}
			if ready {
				log.Debug("ready", "name", cfg.Name, "attempt", attempt, "elapsed", time.Since(start))
			}
			return ready, nil
		})

	switch {
	case err == nil:
		return nil
	case wait.Interrupted(err) && ctx.Err() == nil:
		return fmt.Errorf("wait for %s after %s and %d attempts: %w", cfg.Name, cfg.Timeout, attempt, ErrTimeout)
	default:
		return fmt.Errorf("wait for %s: %w", cfg.Name, err)
	}
}
