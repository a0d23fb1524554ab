package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/ports"
)

// DefaultSessionTTL is used when SessionServiceOptions.TTL is not set.
const DefaultSessionTTL = 8 * time.Hour

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Authenticator ports.Authenticator // Required for password logins
	Sessions      ports.SessionStore  // Required
	SSO           ports.SSOProvider   // Optional: enables BeginSSO/CompleteSSO
	Roles         ports.RoleMapper    // Required when SSO is set
	TTL           time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
	NewID         func() string
}

// SessionService owns the lifecycle of the Principal bound to a browser:
// login replaces it, logout destroys it, and every request hydrates it from
// the Session slot.
type SessionService struct {
	authn    ports.Authenticator
	sessions ports.SessionStore
	sso      ports.SSOProvider
	roles    ports.RoleMapper
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) (*SessionService, error) {
	if opts.Sessions == nil {
		return nil, errors.New("SessionStore is required")
	}
	if opts.Authenticator == nil && opts.SSO == nil {
		return nil, errors.New("an Authenticator or SSOProvider is required")
	}
	if opts.SSO != nil && opts.Roles == nil {
		return nil, errors.New("RoleMapper is required for SSO")
	}

	s := &SessionService{
		authn:    opts.Authenticator,
		sessions: opts.Sessions,
		sso:      opts.SSO,
		roles:    opts.Roles,
		ttl:      opts.TTL,
		logger:   opts.Logger,
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "session_service")
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = generateSessionID
	}
	return s, nil
}

// LoginInput is the submitted login form.
type LoginInput struct {
	Identifier string
	Credential string
	// Role is the role picked on the form; empty when none was picked.
	Role string
}

// LoginResult describes the session created by a successful login.
type LoginResult struct {
	SessionID string
	Principal domainauth.Principal
	ExpiresAt time.Time
}

// Login authenticates the credentials and binds the resulting Principal to a
// fresh session, deleting priorSessionID afterwards. On failure nothing is
// written and the prior session stays as it was.
func (s *SessionService) Login(ctx context.Context, priorSessionID string, in LoginInput) (*LoginResult, error) {
	if s.authn == nil {
		return nil, domainauth.NewAuthenticationError(domainauth.FailureUnavailable, errors.New("password login is disabled"))
	}

	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" || in.Credential == "" {
		return nil, domainauth.NewAuthenticationError(domainauth.FailureInvalidInput, errors.New("identifier and credential are required"))
	}

	var role domainauth.Role
	if in.Role != "" {
		parsed, ok := domainauth.ParseRole(in.Role)
		if !ok {
			return nil, domainauth.NewAuthenticationError(domainauth.FailureInvalidRole, &domainauth.InvalidRoleError{Value: in.Role})
		}
		role = parsed
	}

	principal, err := s.authn.Authenticate(ctx, ports.Credentials{
		Identifier: identifier,
		Secret:     in.Credential,
		Role:       role,
	})
	if err != nil {
		if !domainauth.IsAuthenticationError(err) {
			err = domainauth.NewAuthenticationError(domainauth.FailureUnavailable, err)
		}
		s.logger.InfoContext(ctx, "login rejected", "error", err)
		return nil, err
	}

	res, err := s.bind(ctx, priorSessionID, principal, s.ttl)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "login succeeded", "role", principal.Role)
	return res, nil
}

// bind writes principal to a new slot and then releases the prior one.
func (s *SessionService) bind(
	ctx context.Context,
	priorSessionID string,
	principal domainauth.Principal,
	ttl time.Duration,
) (*LoginResult, error) {
	data, err := domainauth.EncodePrincipal(principal)
	if err != nil {
		return nil, domainauth.NewAuthenticationError(domainauth.FailureInvalidResponse, err)
	}

	id := s.newID()
	if saveErr := s.sessions.Save(ctx, id, data, ttl); saveErr != nil {
		return nil, domainauth.NewAuthenticationError(domainauth.FailureUnavailable, fmt.Errorf("save session: %w", saveErr))
	}

	if priorSessionID != "" && priorSessionID != id {
		if delErr := s.sessions.Delete(ctx, priorSessionID); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete prior session", "error", delErr)
		}
	}

	return &LoginResult{
		SessionID: id,
		Principal: principal,
		ExpiresAt: s.now().Add(ttl),
	}, nil
}

// Logout removes the session. It is idempotent and never fails; storage
// errors are logged.
func (s *SessionService) Logout(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete session on logout", "error", err)
	}
}

// CurrentPrincipal returns the Principal bound to sessionID, or nil when there
// is none. Corrupt slots are deleted.
func (s *SessionService) CurrentPrincipal(ctx context.Context, sessionID string) *domainauth.Principal {
	if sessionID == "" {
		return nil
	}

	data, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ports.ErrSessionNotFound) {
			s.logger.WarnContext(ctx, "failed to load session", "error", err)
		}
		return nil
	}

	p, err := domainauth.DecodePrincipal(data)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding corrupt session", "error", err)
		if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete corrupt session", "error", delErr)
		}
		return nil
	}
	return &p
}

// SSOEnabled reports whether an SSO provider is configured.
func (s *SessionService) SSOEnabled() bool { return s.sso != nil }

// BeginSSOResult contains the result of beginning an SSO flow.
type BeginSSOResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginSSO initiates an SSO flow and returns the provider auth URL with state and nonce.
func (s *SessionService) BeginSSO(ctx context.Context, redirectURL string) (*BeginSSOResult, error) {
	if s.sso == nil {
		return nil, errors.New("sso is not configured")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.sso.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginSSOResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// SSOInput groups parameters for completing an SSO flow.
type SSOInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteSSO exchanges the authorization code for an identity, maps its
// groups to a role and binds the Principal to a fresh session.
func (s *SessionService) CompleteSSO(ctx context.Context, priorSessionID string, in SSOInput) (*LoginResult, error) {
	if s.sso == nil {
		return nil, errors.New("sso is not configured")
	}
	if in.Code == "" || in.State == "" || in.Nonce == "" {
		return nil, domainauth.NewAuthenticationError(domainauth.FailureInvalidInput, errors.New("code, state and nonce are required"))
	}

	identity, err := s.sso.Exchange(ctx, ports.ExchangeInput(in))
	if err != nil {
		return nil, domainauth.NewAuthenticationError(domainauth.FailureInvalidCredentials, fmt.Errorf("exchange authorization code: %w", err))
	}

	role, ok := s.roles.Map(identity.Groups)
	if !ok {
		s.logger.InfoContext(ctx, "sso login without mapped role", "user_id", identity.UserID)
		return nil, domainauth.NewAuthenticationError(domainauth.FailureNoRole, nil)
	}

	identifier := identity.Email
	if identifier == "" {
		identifier = identity.UserID
	}
	if identifier == "" {
		return nil, domainauth.NewAuthenticationError(domainauth.FailureInvalidResponse, errors.New("identity has no email or user id"))
	}

	ttl := s.ttl
	if !identity.ExpiresAt.IsZero() {
		if remaining := identity.ExpiresAt.Sub(s.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return nil, domainauth.NewAuthenticationError(domainauth.FailureInvalidResponse, errors.New("identity already expired"))
	}

	res, err := s.bind(ctx, priorSessionID, domainauth.Principal{Identifier: identifier, Role: role}, ttl)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "sso login succeeded", "role", role)
	return res, nil
}

// Health checks the session store and the authentication collaborator
// concurrently. Dependencies that cannot report health are skipped.
func (s *SessionService) Health(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	if p, ok := s.sessions.(ports.Pinger); ok {
		g.Go(func() error {
			if err := p.Ping(gctx); err != nil {
				return fmt.Errorf("session store: %w", err)
			}
			return nil
		})
	}
	if p, ok := s.authn.(ports.Pinger); ok {
		g.Go(func() error {
			if err := p.Ping(gctx); err != nil {
				return fmt.Errorf("auth collaborator: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	return uuid.New().String()
}
