package chain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	scouterr "github.com/talentscout/scout/pkg/errors"
)

// Sentinel errors for retry logic.
var (
	ErrRetryable = &scouterr.ScoutError{
		Code:     "RETRYABLE_ERROR",
		Message:  "retryable error",
		ExitCode: scouterr.ExitGeneral,
	}

	ErrRateLimited = &scouterr.ScoutError{
		Code:     "RATE_LIMITED",
		Message:  "rate limited",
		ExitCode: scouterr.ExitGeneral,
	}
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts (including initial)
	BaseDelay   time.Duration // Initial delay between retries
	MaxDelay    time.Duration // Maximum delay between retries
}

// DefaultRetryConfig is 3 attempts with delays around 250ms and 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// Retry runs operation with the default configuration.
func Retry[T any](ctx context.Context, operation func(context.Context) (T, error)) (T, error) {
	return RetryWithConfig(ctx, DefaultRetryConfig(), operation)
}

// RetryWithConfig runs operation until it succeeds, fails with an error
// IsRetryable rejects, or runs out of attempts.
func RetryWithConfig[T any](ctx context.Context, cfg RetryConfig, operation func(context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := range attempts {
		result, err = operation(ctx)
		if err == nil || !IsRetryable(err) {
			return result, err
		}
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(backoff(attempt, cfg.BaseDelay, cfg.MaxDelay))
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}

// backoff doubles the delay per attempt up to maxDelay, then picks a point
// in [delay/2, delay).
func backoff(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := min(baseDelay<<attempt, maxDelay)
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + rand.N(half) //nolint:gosec // G404: jitter does not need crypto randomness
}

// IsRetryable reports whether err is transient: a marked error, a timeout,
// an HTTP 429 or 5xx from the node, or a network error.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRetryable) || errors.Is(err, ErrRateLimited) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var httpErr gethrpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= http.StatusInternalServerError
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// WrapRetryable marks err as retryable.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}
