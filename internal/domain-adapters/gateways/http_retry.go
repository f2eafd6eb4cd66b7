package gateways

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"
)

const (
	// Maximum number of retry attempts
	maxRetries = 3
	// Max backoff duration
	maxBackoff = 32 * time.Second
)

// initialBackoff is a variable so tests can shorten it
var initialBackoff = 1 * time.Second

// checkRateLimit reports an exhausted GitHub rate limit
func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}

	remainingInt, err := strconv.Atoi(remaining)
	if err != nil {
		return nil
	}

	if remainingInt == 0 {
		reset := resp.Header.Get("X-RateLimit-Reset")
		if resetUnix, err := strconv.ParseInt(reset, 10, 64); err == nil {
			return fmt.Errorf("GitHub API rate limit exceeded, resets at %s",
				time.Unix(resetUnix, 0).UTC().Format(time.RFC3339))
		}
		return fmt.Errorf("GitHub API rate limit exceeded")
	}

	return nil
}

// isRetryableError determines if an HTTP status code should trigger a retry
func isRetryableError(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// calculateBackoff returns exponential backoff duration for given attempt
func calculateBackoff(attempt int) time.Duration {
	backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	return time.Duration(backoff)
}

// doWithRetry executes an HTTP request with exponential backoff retry.
// The request must not carry a body.
func doWithRetry(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(calculateBackoff(attempt - 1)):
			}
		}

		resp, err = client.Do(req.WithContext(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Network errors are retryable
			if attempt < maxRetries {
				continue
			}
			return nil, err
		}

		if rateLimitErr := checkRateLimit(resp); rateLimitErr != nil {
			//nolint:errcheck,gosec // G104: Best effort close on rate limit error
			resp.Body.Close()
			return nil, rateLimitErr
		}

		if !isRetryableError(resp.StatusCode) {
			return resp, nil
		}

		if attempt < maxRetries {
			//nolint:errcheck,gosec // G104: Best effort close before retry
			resp.Body.Close()
			continue
		}

		// Max retries reached
		return resp, nil
	}

	return resp, err
}
