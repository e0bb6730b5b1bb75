package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RetryConfig defines retry behavior for provider calls.
type RetryConfig struct {
	// MaxRetries is the number of retry attempts after the first call.
	MaxRetries int
	// Step is the linear backoff unit; attempt n waits n*Step.
	Step time.Duration
}

// DefaultRetryConfig retries transport failures three times with linear
// backoff in 300ms steps.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		Step:       300 * time.Millisecond,
	}
}

// RetryableFunc performs one provider call.
type RetryableFunc func() (*http.Response, error)

// IsRetryableStatusCode reports whether an HTTP status warrants a retry.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// IsRetryableError reports whether an error warrants a retry. Context
// cancellation never does.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Network-level failures (refused connections, resets, DNS) are all
	// retryable from the caller's point of view.
	return true
}

// ExecuteWithRetry runs fn with linear backoff until it succeeds, the
// retries are exhausted, or the context is cancelled.
func ExecuteWithRetry(ctx context.Context, config RetryConfig, fn RetryableFunc) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled before attempt %d: %w", attempt+1, ctx.Err())
		default:
		}

		resp, err := fn()
		if err == nil && resp != nil && !IsRetryableStatusCode(resp.StatusCode) {
			return resp, nil
		}

		if resp != nil && IsRetryableStatusCode(resp.StatusCode) {
			lastErr = fmt.Errorf("HTTP %d: retryable server error", resp.StatusCode)
			resp.Body.Close()
		} else if err != nil {
			lastErr = err
			if !IsRetryableError(err) {
				return nil, err
			}
		}

		if attempt == config.MaxRetries {
			break
		}

		// Linear backoff: attempt 1 waits Step, attempt 2 waits 2*Step, ...
		delay := time.Duration(attempt+1) * config.Step
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", config.MaxRetries+1, lastErr)
}
