package transport

import (
	"net/http"
	"time"
)

const (
	DefaultRateLimitAttempts = 5
	DefaultServerAttempts    = 3
	DefaultTimeout           = 30 * time.Second
)

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// WithTimeout sets the per-attempt timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(t *Transport) {
		if timeout > 0 {
			t.httpClient.Timeout = timeout
		}
	}
}

// WithAPIVersion sends the x-api-version header, which pins response shapes.
func WithAPIVersion(version string) Option {
	return func(t *Transport) {
		t.apiVersion = version
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(t *Transport) {
		t.userAgent = userAgent
	}
}

// WithRetryBudget sets how many attempts 429 and 5xx responses get.
func WithRetryBudget(rateLimited, server int) Option {
	return func(t *Transport) {
		if rateLimited > 0 {
			t.maxRateLimitAttempts = rateLimited
		}
		if server > 0 {
			t.maxServerAttempts = server
		}
	}
}

// WithBackoff sets the first and the largest backoff delay.
func WithBackoff(initial, max time.Duration) Option {
	return func(t *Transport) {
		if initial > 0 {
			t.initialBackoff = initial
		}
		if max > 0 {
			t.maxBackoff = max
		}
	}
}
