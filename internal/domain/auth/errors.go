package auth

import (
	"errors"
	"fmt"
)

// AuthenticationFailure categorizes why a login attempt was rejected.
type AuthenticationFailure string

const (
	// FailureInvalidCredentials means the collaborator rejected the credentials.
	FailureInvalidCredentials AuthenticationFailure = "invalid_credentials"
	// FailureUnavailable means the collaborator could not be reached.
	FailureUnavailable AuthenticationFailure = "unavailable"
	// FailureInvalidResponse means the collaborator answered with something unusable.
	FailureInvalidResponse AuthenticationFailure = "invalid_response"
	// FailureInvalidRole means the resolved role is not part of the Role enumeration.
	FailureInvalidRole AuthenticationFailure = "invalid_role"
	// FailureNoRole means no role could be mapped for the identity.
	FailureNoRole AuthenticationFailure = "no_role"
	// FailureInvalidInput means the login input itself was unusable.
	FailureInvalidInput AuthenticationFailure = "invalid_input"
)

// AuthenticationError is returned when a login attempt fails.
// The previous session, if any, is left untouched.
type AuthenticationError struct {
	Reason AuthenticationFailure
	Cause  error
}

func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication failed (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("authentication failed (%s)", e.Reason)
}

func (e *AuthenticationError) Unwrap() error { return e.Cause }

// NewAuthenticationError builds an AuthenticationError with an optional cause.
func NewAuthenticationError(reason AuthenticationFailure, cause error) *AuthenticationError {
	return &AuthenticationError{Reason: reason, Cause: cause}
}

// IsAuthenticationError reports whether err carries an AuthenticationError.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// CorruptSessionError reports a Session slot whose content is not a well-formed Principal.
// It never leaves the session layer; callers treat it as "no session".
type CorruptSessionError struct {
	Cause error
}

func (e *CorruptSessionError) Error() string {
	if e.Cause != nil {
		return "corrupt session: " + e.Cause.Error()
	}
	return "corrupt session"
}

func (e *CorruptSessionError) Unwrap() error { return e.Cause }

// UnauthorizedNavigationError describes a navigation the guard resolved by redirect.
type UnauthorizedNavigationError struct {
	Path string
	Role Role
}

func (e *UnauthorizedNavigationError) Error() string {
	return fmt.Sprintf("role %q may not navigate to %s", e.Role, e.Path)
}

// InvalidRoleError is returned when a string does not name a known role.
type InvalidRoleError struct {
	Value string
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("invalid role: %q", e.Value)
}
