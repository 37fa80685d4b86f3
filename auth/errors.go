package auth

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrAuthExpired matches any AuthExpiredError
	ErrAuthExpired = errors.New("authorization expired")
	// ErrStateMismatch indicates the redirect returned a state we did not issue
	ErrStateMismatch = errors.New("authorization state mismatch")
	// ErrWrongGrant indicates an operation that the configured grant does not support
	ErrWrongGrant = errors.New("operation not supported by grant")
)

// AuthExpiredError is returned when the provider rejects a refresh or exchange
// and the caller has to run the interactive flow again.
type AuthExpiredError struct {
	Grant  GrantKind
	Reason string
	Err    error
}

// Error implements the error interface
func (e *AuthExpiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth expired (%s): %s: %v", e.Grant, e.Reason, e.Err)
	}
	return fmt.Sprintf("auth expired (%s): %s", e.Grant, e.Reason)
}

func (e *AuthExpiredError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAuthExpired) hold for every AuthExpiredError
func (e *AuthExpiredError) Is(target error) bool {
	return target == ErrAuthExpired
}
