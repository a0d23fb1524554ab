package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/kedaara/performance-hub/config"
	"github.com/kedaara/performance-hub/internal/adapters/authapi"
	"github.com/kedaara/performance-hub/internal/adapters/authroles"
	"github.com/kedaara/performance-hub/internal/adapters/localauth"
	"github.com/kedaara/performance-hub/internal/adapters/memstore"
	"github.com/kedaara/performance-hub/internal/adapters/oidc"
	"github.com/kedaara/performance-hub/internal/adapters/pgstore"
	redisadapter "github.com/kedaara/performance-hub/internal/adapters/redis"
	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/ports"
	"github.com/kedaara/performance-hub/internal/service"
)

// devRoleGroups is used by the development SSO provider when no ROLE_GROUP_*
// variable is set.
//
//nolint:gochecknoglobals // static read-only lookup
var devRoleGroups = config.RoleGroupsConfig{
	Employee:            "kph-employees",
	Mentor:              "kph-mentors",
	HRLead:              "kph-hr-leads",
	PeopleCommittee:     "kph-people-committee",
	SystemAdministrator: "kph-admins",
}

// SessionDeps groups what the session service is built from.
type SessionDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildSessionStore selects the Session slot backend.
//
//nolint:ireturn // the backend is chosen at runtime
func BuildSessionStore(deps SessionDeps) (ports.SessionStore, error) {
	cfg := deps.Config.Session
	switch cfg.Backend {
	case config.SessionBackendMemory, "":
		return memstore.NewSessionStore(memstore.Options{
			Capacity: cfg.MemoryCapacity,
			MaxTTL:   cfg.TTL,
		}), nil
	case config.SessionBackendRedis:
		if deps.RedisClient == nil {
			return nil, errors.New("redis session backend requires a redis client")
		}
		return redisadapter.NewSessionStoreWithPrefix(deps.RedisClient, cfg.KeyPrefix), nil
	case config.SessionBackendPostgres:
		if deps.DB == nil {
			return nil, errors.New("postgres session backend requires a database")
		}
		return pgstore.NewSessionStore(deps.DB), nil
	default:
		return nil, fmt.Errorf("unsupported session backend %q", cfg.Backend)
	}
}

// authCollaborators is what the configured auth mode contributes to the session service.
type authCollaborators struct {
	authenticator ports.Authenticator
	sso           ports.SSOProvider
	roles         ports.RoleMapper
}

func buildAuthCollaborators(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (authCollaborators, error) {
	auth := cfg.Auth
	switch auth.Mode {
	case config.AuthModeLocal, "":
		if !cfg.IsDev {
			logger.WarnContext(ctx, "AUTH_MODE=local accepts any credential; do not use it in production")
		}
		out := authCollaborators{authenticator: localauth.New()}
		if cfg.IsDev && auth.DevAuth.SSOEnabled {
			prov, err := localauth.NewSSOProvider(localauth.SSOConfig{
				UserID:          auth.DevAuth.UserID,
				Email:           auth.DevAuth.Email,
				Groups:          auth.DevAuth.Groups,
				SessionDuration: cfg.Session.TTL,
			})
			if err != nil {
				return authCollaborators{}, fmt.Errorf("dev sso provider: %w", err)
			}
			groups := auth.RoleGroups
			if groups.Empty() {
				groups = devRoleGroups
			}
			out.sso, out.roles = prov, roleMapperFrom(groups)
		}
		return out, nil

	case config.AuthModeRemote:
		client, err := authapi.New(authapi.Config{
			BaseURL:        auth.API.BaseURL,
			Timeout:        auth.API.Timeout,
			IdentifierPath: auth.API.IdentifierPath,
			RolePath:       auth.API.RolePath,
			TokenPath:      auth.API.TokenPath,
			TokenSecret:    auth.API.TokenSecret,
		})
		if err != nil {
			return authCollaborators{}, fmt.Errorf("remote authenticator: %w", err)
		}
		return authCollaborators{authenticator: client}, nil

	case config.AuthModeOIDC:
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     auth.OAuth.ClientID,
			ClientSecret: auth.OAuth.ClientSecret,
			RedirectURL:  auth.OAuth.RedirectURL,
			Scope:        auth.OAuth.Scope,
			DiscoveryURL: auth.OAuth.DiscoveryURL,
		})
		if err != nil {
			return authCollaborators{}, fmt.Errorf("oidc provider: %w", err)
		}
		return authCollaborators{sso: prov, roles: roleMapperFrom(auth.RoleGroups)}, nil

	default:
		return authCollaborators{}, fmt.Errorf("unsupported auth mode %q", auth.Mode)
	}
}

func roleMapperFrom(g config.RoleGroupsConfig) authroles.GroupRoleMapper {
	return authroles.GroupRoleMapper{Groups: map[domainauth.Role]string{
		domainauth.RoleEmployee:            g.Employee,
		domainauth.RoleMentor:              g.Mentor,
		domainauth.RoleHRLead:              g.HRLead,
		domainauth.RolePeopleCommittee:     g.PeopleCommittee,
		domainauth.RoleSystemAdministrator: g.SystemAdministrator,
	}}
}

// BuildSessionService wires the session store and the auth collaborators
// selected by configuration.
func BuildSessionService(ctx context.Context, deps SessionDeps) (*service.SessionService, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := BuildSessionStore(deps)
	if err != nil {
		return nil, err
	}
	collab, err := buildAuthCollaborators(ctx, deps.Config, logger)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "session service configured",
		"auth_mode", deps.Config.Auth.Mode,
		"session_backend", deps.Config.Session.Backend,
		"sso", collab.sso != nil,
	)
	return service.NewSessionService(service.SessionServiceOptions{
		Authenticator: collab.authenticator,
		Sessions:      store,
		SSO:           collab.sso,
		Roles:         collab.roles,
		TTL:           deps.Config.Session.TTL,
		Logger:        logger,
	})
}
