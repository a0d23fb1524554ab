// Package localauth authenticates without an external authority. The role
// comes from the login form, or from the identifier when the form has none.
// No credential is checked; use it only where every user is trusted.
package localauth

import (
	"context"
	"errors"
	"strings"

	"github.com/kedaara/performance-hub/internal/adapters/authroles"
	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/ports"
)

// Authenticator implements ports.Authenticator for local mode.
type Authenticator struct {
	roles authroles.EmailRoleMapper
}

var _ ports.Authenticator = (*Authenticator)(nil)

// New returns a local authenticator.
func New() *Authenticator { return &Authenticator{} }

func (a *Authenticator) Authenticate(_ context.Context, creds ports.Credentials) (domainauth.Principal, error) {
	// The identifier is kept as typed; only surrounding whitespace is dropped.
	identifier := strings.TrimSpace(creds.Identifier)
	if identifier == "" {
		return domainauth.Principal{}, domainauth.NewAuthenticationError(
			domainauth.FailureInvalidInput, errors.New("identifier is empty"))
	}
	if creds.Secret == "" {
		return domainauth.Principal{}, domainauth.NewAuthenticationError(
			domainauth.FailureInvalidCredentials, errors.New("credential is empty"))
	}

	role := creds.Role
	switch {
	case role == "":
		role = a.roles.RoleFor(identifier)
	case !role.Valid():
		return domainauth.Principal{}, domainauth.NewAuthenticationError(
			domainauth.FailureInvalidRole, &domainauth.InvalidRoleError{Value: string(role)})
	}
	return domainauth.Principal{Identifier: identifier, Role: role}, nil
}
