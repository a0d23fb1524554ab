package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeLocal accepts any credential and trusts the submitted role.
	// Intended for demos and development.
	AuthModeLocal AuthMode = "local"
	// AuthModeRemote delegates credential checks to the authentication API.
	AuthModeRemote AuthMode = "remote"
	// AuthModeOIDC uses OAuth/OIDC single sign-on.
	AuthModeOIDC AuthMode = "oidc"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "local", "remote", "oidc":
		*a = AuthMode(v)
		return nil
	case "oauth":
		*a = AuthModeOIDC
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: local, remote, oidc)", v)
	}
}

// AuthAPIConfig configures the remote authentication collaborator.
type AuthAPIConfig struct {
	BaseURL string        `env:"BASE_URL"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"10s"`

	// JMESPath expressions evaluated against the login response.
	IdentifierPath string `env:"IDENTIFIER_PATH" envDefault:"principal.identifier || user.email"`
	RolePath       string `env:"ROLE_PATH"       envDefault:"principal.role || user.role"`
	TokenPath      string `env:"TOKEN_PATH"      envDefault:"token || access_token"`

	// TokenSecret enables HS256 verification of the returned token.
	TokenSecret string `env:"TOKEN_SECRET"`
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig controls the development SSO identity.
// Only honoured in local mode with DEV=true.
type DevAuthConfig struct {
	SSOEnabled bool     `env:"SSO_ENABLED" envDefault:"false"`
	UserID     string   `env:"USER_ID"     envDefault:"dev-user"`
	Email      string   `env:"EMAIL"       envDefault:"dev@kedaara.com"`
	Groups     []string `env:"GROUPS"      envDefault:"kph-employees" envSeparator:";"`
}

// RoleGroupsConfig names the directory group granting each role.
type RoleGroupsConfig struct {
	Employee            string `env:"EMPLOYEE"`
	Mentor              string `env:"MENTOR"`
	HRLead              string `env:"HR_LEAD"`
	PeopleCommittee     string `env:"PEOPLE_COMMITTEE"`
	SystemAdministrator string `env:"SYSTEM_ADMINISTRATOR"`
}

// Empty reports whether no group is configured.
func (g RoleGroupsConfig) Empty() bool {
	return g == RoleGroupsConfig{}
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication collaborator to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"local"`

	// API configuration (used when Mode=remote).
	API AuthAPIConfig `envPrefix:"AUTH_API_"`

	// OAuth configuration (used when Mode=oidc).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=local).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// RoleGroups maps directory groups to roles for SSO logins.
	RoleGroups RoleGroupsConfig `envPrefix:"ROLE_GROUP_"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	a.API.BaseURL = strings.TrimRight(strings.TrimSpace(a.API.BaseURL), "/")
	if a.API.Timeout <= 0 {
		a.API.Timeout = 10 * time.Second
	}
	if a.API.Timeout > 2*time.Minute {
		a.API.Timeout = 2 * time.Minute
	}
}

// Validate checks that the selected mode has what it needs.
func (a *AuthConfig) Validate() error {
	switch a.Mode {
	case AuthModeLocal, "":
		return nil
	case AuthModeRemote:
		if a.API.BaseURL == "" {
			return errors.New("AUTH_MODE=remote requires AUTH_API_BASE_URL")
		}
		return nil
	case AuthModeOIDC:
		var errs []error
		if a.OAuth.DiscoveryURL == "" {
			errs = append(errs, errors.New("AUTH_MODE=oidc requires OAUTH_DISCOVERY_URL"))
		}
		if a.OAuth.ClientID == "" || a.OAuth.ClientSecret == "" {
			errs = append(errs, errors.New("AUTH_MODE=oidc requires OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET"))
		}
		if a.RoleGroups.Empty() {
			errs = append(errs, errors.New("AUTH_MODE=oidc requires at least one ROLE_GROUP_* variable"))
		}
		return errors.Join(errs...)
	default:
		return fmt.Errorf("unsupported auth mode %q", a.Mode)
	}
}
