package localauth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/ports"
)

func TestAuthenticator_UsesSelectedRole(t *testing.T) {
	p, err := New().Authenticate(context.Background(), ports.Credentials{
		Identifier: "a@x.com", Secret: "whatever", Role: domainauth.RoleEmployee,
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.Principal{Identifier: "a@x.com", Role: domainauth.RoleEmployee}, p)

	// The selected role wins over any mailbox hint.
	p, err = New().Authenticate(context.Background(), ports.Credentials{
		Identifier: "admin@x.com", Secret: "whatever", Role: domainauth.RoleMentor,
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleMentor, p.Role)
}

func TestAuthenticator_DerivesRoleFromIdentifier(t *testing.T) {
	cases := map[string]domainauth.Role{
		"admin@kedaara.com":     domainauth.RoleSystemAdministrator,
		"mentor@kedaara.com":    domainauth.RoleMentor,
		"hr@kedaara.com":        domainauth.RoleHRLead,
		"committee@kedaara.com": domainauth.RolePeopleCommittee,
		"Someone@Kedaara.com":   domainauth.RoleEmployee,
		"ADMIN@kedaara.com":     domainauth.RoleEmployee,
		"jdoe":                  domainauth.RoleEmployee,
	}
	for id, want := range cases {
		p, err := New().Authenticate(context.Background(), ports.Credentials{Identifier: id, Secret: "pw"})
		require.NoError(t, err, id)
		assert.Equal(t, want, p.Role, id)
		assert.Equal(t, id, p.Identifier)
	}
}

func TestAuthenticator_KeepsIdentifierAsTyped(t *testing.T) {
	for _, id := range []string{"Jane.Doe@X.com", "jdoe", "Alice <a@x.com>", "EMP-0042"} {
		p, err := New().Authenticate(context.Background(), ports.Credentials{
			Identifier: "  " + id + "\t", Secret: "pw", Role: domainauth.RoleEmployee,
		})
		require.NoError(t, err, id)
		assert.Equal(t, domainauth.Principal{Identifier: id, Role: domainauth.RoleEmployee}, p)
	}
}

func TestAuthenticator_Failures(t *testing.T) {
	tests := []struct {
		name   string
		creds  ports.Credentials
		reason domainauth.AuthenticationFailure
	}{
		{"empty identifier", ports.Credentials{Secret: "pw"}, domainauth.FailureInvalidInput},
		{"blank identifier", ports.Credentials{Identifier: " \t ", Secret: "pw"}, domainauth.FailureInvalidInput},
		{"empty secret", ports.Credentials{Identifier: "a@x.com"}, domainauth.FailureInvalidCredentials},
		{"unknown role", ports.Credentials{Identifier: "a@x.com", Secret: "pw", Role: "Intern"}, domainauth.FailureInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Authenticate(context.Background(), tt.creds)
			var authErr *domainauth.AuthenticationError
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, tt.reason, authErr.Reason)
		})
	}
}

func TestSSOProvider_BeginAndExchange(t *testing.T) {
	prov, err := NewSSOProvider(SSOConfig{UserID: "dev-user", Email: "dev@kedaara.com", Groups: []string{"kph-hr"}})
	require.NoError(t, err)
	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	prov.now = func() time.Time { return fixed }

	authURL, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(authURL, "/auth/callback?"))
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, state, u.Query().Get("state"))
	assert.NotEmpty(t, nonce)

	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "local", State: state, Nonce: nonce})
	require.NoError(t, err)
	assert.Equal(t, "dev-user", id.UserID)
	assert.Equal(t, "dev@kedaara.com", id.Email)
	assert.Equal(t, []string{"kph-hr"}, id.Groups)
	assert.Equal(t, fixed.Add(8*time.Hour), id.ExpiresAt)
}

func TestNewSSOProvider_Validation(t *testing.T) {
	_, err := NewSSOProvider(SSOConfig{Email: "dev@kedaara.com"})
	require.Error(t, err)
	_, err = NewSSOProvider(SSOConfig{UserID: "dev"})
	require.Error(t, err)
}
