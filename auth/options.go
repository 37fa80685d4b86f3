package auth

import (
	"net/http"
	"time"
)

// DefaultSkew is how long before expiry a credential is already treated as expired.
const DefaultSkew = 30 * time.Second

// Option configures an Authenticator.
type Option func(*options)

type options struct {
	httpClient *http.Client
	now        func() time.Time
	skew       time.Duration
}

func defaultOptions() options {
	return options{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        func() time.Time { return time.Now().UTC() },
		skew:       DefaultSkew,
	}
}

// WithHTTPClient sets the client used for token endpoint calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSkew sets the expiry margin.
func WithSkew(skew time.Duration) Option {
	return func(o *options) {
		if skew >= 0 {
			o.skew = skew
		}
	}
}
