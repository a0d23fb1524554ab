package ports

// Package ports defines interfaces (hexagonal ports) for session and auth behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
)

// ErrSessionNotFound is returned by a SessionStore when no slot exists for an id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists Session slots. Values are opaque to the store; the
// session service owns their encoding.
type SessionStore interface {
	// Load returns the slot value or ErrSessionNotFound when absent or expired.
	Load(ctx context.Context, id string) ([]byte, error)
	// Save writes the slot, replacing any previous value, expiring after ttl.
	Save(ctx context.Context, id string, data []byte, ttl time.Duration) error
	// Delete removes the slot. Deleting an absent slot is not an error.
	Delete(ctx context.Context, id string) error
}

// Pinger is implemented by stores and collaborators that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Credentials are the inputs of a password-style login.
type Credentials struct {
	Identifier string
	Secret     string
	// Role is the role the user selected on the form. Authenticators that
	// receive the role from an authority ignore it.
	Role domainauth.Role
}

// Authenticator decides whether credentials identify a Principal.
// Failures are reported as *domainauth.AuthenticationError.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (domainauth.Principal, error)
}

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SSOProvider initiates and completes an authentication flow against an IdP.
type SSOProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// RoleMapper maps provider groups to application roles.
// The boolean is false when none of the groups map to a role.
type RoleMapper interface {
	Map(groups []string) (domainauth.Role, bool)
}

// SessionPurger is implemented by stores whose expired slots must be removed
// explicitly rather than by the backend.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
