package localauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/ports"
)

// SSOConfig describes the fixed identity returned by the development SSO provider.
type SSOConfig struct {
	UserID          string
	Email           string
	Groups          []string
	SessionDuration time.Duration // default 8h when zero
}

// SSOProvider short-circuits the OIDC flow for local development: Begin
// redirects straight to our own callback and Exchange returns the configured identity.
type SSOProvider struct {
	identity domainauth.Identity
	duration time.Duration
	now      func() time.Time
}

var _ ports.SSOProvider = (*SSOProvider)(nil)

// NewSSOProvider validates cfg and returns a development SSO provider.
func NewSSOProvider(cfg SSOConfig) (*SSOProvider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev sso: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev sso: Email is required")
	}
	dur := cfg.SessionDuration
	if dur <= 0 {
		dur = 8 * time.Hour
	}
	return &SSOProvider{
		identity: domainauth.Identity{
			UserID: cfg.UserID,
			Email:  cfg.Email,
			Groups: slices.Clone(cfg.Groups),
		},
		duration: dur,
		now:      time.Now,
	}, nil
}

// Begin returns our own callback URL with a fresh state and nonce.
func (p *SSOProvider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"local"}, "state": {state}}
	return "/auth/callback?" + q.Encode(), state, nonce, nil
}

// Exchange ignores the code; state is checked by the handler.
func (p *SSOProvider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	id := p.identity
	id.Groups = slices.Clone(id.Groups)
	id.ExpiresAt = p.now().Add(p.duration)
	return id, nil
}

func randomToken() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
