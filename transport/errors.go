package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/s0up4200/osuapi/auth"
)

// Common errors. Each typed error below matches one of these with errors.Is.
var (
	ErrInsufficientScope = errors.New("insufficient scope")
	ErrRateLimited       = errors.New("rate limited")
	ErrRemoteServer      = errors.New("remote server error")
	ErrNotFound          = errors.New("resource not found")
	ErrRequest           = errors.New("request rejected")
)

// ErrorEnvelope is the status and error body of a non-2xx response.
type ErrorEnvelope struct {
	StatusCode int
	Code       string
	Message    string
}

func (e ErrorEnvelope) String() string {
	if e.Code != "" {
		return fmt.Sprintf("status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// parseEnvelope builds the envelope from a response. The body is best effort;
// the status text stands in when the body carries no message.
func parseEnvelope(status int, body []byte) ErrorEnvelope {
	env := ErrorEnvelope{StatusCode: status}

	var payload struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
		Message     string `json:"message"`
		Code        string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Description != "":
			env.Message = payload.Description
			env.Code = payload.Error
		case payload.Error != "":
			env.Message = payload.Error
		case payload.Message != "":
			env.Message = payload.Message
		}
		if payload.Code != "" {
			env.Code = payload.Code
		}
	}
	if env.Message == "" {
		env.Message = http.StatusText(status)
	}
	return env
}

// RequestError is a non-retryable 4xx response.
type RequestError struct {
	ErrorEnvelope
	Method string
	Path   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("osu API error: %s %s: %s", e.Method, e.Path, e.ErrorEnvelope)
}

func (e *RequestError) Is(target error) bool { return target == ErrRequest }

// IsUnauthorized reports a 401 that survived a forced refresh
func (e *RequestError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// NotFoundError is a 404 response. Several endpoints use it to say "no such
// entity", so callers often treat it as an empty result.
type NotFoundError struct {
	ErrorEnvelope
	Method string
	Path   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("osu API error: %s %s: %s", e.Method, e.Path, e.ErrorEnvelope)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RateLimitedError is returned once 429 responses exhausted the retry budget.
type RateLimitedError struct {
	ErrorEnvelope
	Attempts   int
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("osu API rate limited after %d attempts: %s", e.Attempts, e.ErrorEnvelope)
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// RemoteServerError is returned once 5xx responses exhausted the retry budget.
type RemoteServerError struct {
	ErrorEnvelope
	Attempts int
}

func (e *RemoteServerError) Error() string {
	return fmt.Sprintf("osu API server error after %d attempts: %s", e.Attempts, e.ErrorEnvelope)
}

func (e *RemoteServerError) Is(target error) bool { return target == ErrRemoteServer }

// InsufficientScopeError means the credential lacks a scope the request needs.
// When Remote is false the request was never sent.
type InsufficientScopeError struct {
	Required []auth.Scope
	Missing  []auth.Scope
	Granted  []auth.Scope
	Remote   bool
	Envelope *ErrorEnvelope
}

func (e *InsufficientScopeError) Error() string {
	if e.Remote && e.Envelope != nil {
		return fmt.Sprintf("insufficient scope: rejected by API: %s", e.Envelope)
	}
	return fmt.Sprintf("insufficient scope: missing %s (granted %s)", joinScopes(e.Missing), joinScopes(e.Granted))
}

func (e *InsufficientScopeError) Is(target error) bool { return target == ErrInsufficientScope }

func joinScopes(scopes []auth.Scope) string {
	if len(scopes) == 0 {
		return "none"
	}
	parts := make([]string, len(scopes))
	for i, s := range scopes {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// IsNotFound reports whether err is, or wraps, a NotFoundError
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether err is a rate limit or server failure that
// exhausted its retry budget; the same request may succeed later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrRemoteServer)
}

// Envelope extracts the error envelope from any HTTP-derived error in err's chain.
func Envelope(err error) (ErrorEnvelope, bool) {
	var (
		reqErr   *RequestError
		notFound *NotFoundError
		rate     *RateLimitedError
		server   *RemoteServerError
		scope    *InsufficientScopeError
	)
	switch {
	case errors.As(err, &reqErr):
		return reqErr.ErrorEnvelope, true
	case errors.As(err, &notFound):
		return notFound.ErrorEnvelope, true
	case errors.As(err, &rate):
		return rate.ErrorEnvelope, true
	case errors.As(err, &server):
		return server.ErrorEnvelope, true
	case errors.As(err, &scope) && scope.Envelope != nil:
		return *scope.Envelope, true
	}
	return ErrorEnvelope{}, false
}
