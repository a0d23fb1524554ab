package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kedaara/performance-hub/config"
	"github.com/kedaara/performance-hub/internal/adapters/pgstore"
	"github.com/kedaara/performance-hub/internal/service"
)

// ServiceOrchestrationConfig contains what Run needs to start the enabled services.
type ServiceOrchestrationConfig struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// Listener overrides HTTP_ADDR, for tests.
	Listener net.Listener
}

// backends holds the connections opened for the selected session backend.
type backends struct {
	db    *sql.DB
	redis redis.UniversalClient
}

func (b backends) close(logger *slog.Logger) {
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			logger.Warn("close database", "error", err)
		}
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}
}

func openBackends(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (backends, error) {
	var b backends
	dbCfg := DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	switch cfg.Session.Backend {
	case config.SessionBackendPostgres:
		db, err := ConnectDB(ctx, dbCfg)
		if err != nil {
			return b, err
		}
		b.db = db
		if cfg.Postgres.RunMigrationsOnStart {
			if err := RunMigrations(ctx, db, logger); err != nil {
				b.close(logger)
				return backends{}, err
			}
		}
	case config.SessionBackendRedis:
		client, err := ConnectRedis(ctx, dbCfg)
		if err != nil {
			return b, err
		}
		b.redis = client
	}
	return b, nil
}

// Run starts every enabled service and blocks until ctx is cancelled or one
// of them fails. Services share one errgroup so a failure stops the rest.
func Run(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := ValidateServiceConfig(cfg.Config); err != nil {
		return err
	}
	logger.InfoContext(ctx, "starting services", "services", GetEnabledServices(cfg.Config))

	be, err := openBackends(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer be.close(logger)

	g, gctx := errgroup.WithContext(ctx)

	// Everything is built before anything starts.
	var runners []func() error
	if cfg.Config.IsReaperEnabled() {
		if be.db == nil {
			return errors.New("session reaper requires the postgres session backend")
		}
		reaper, reaperErr := service.NewSessionReaper(service.SessionReaperOptions{
			Store:    pgstore.NewSessionStore(be.db),
			Interval: cfg.Config.Session.ReaperInterval,
			Logger:   logger,
		})
		if reaperErr != nil {
			return fmt.Errorf("session reaper: %w", reaperErr)
		}
		runners = append(runners, func() error { return reaper.Run(gctx) })
	}
	if cfg.Config.IsHTTPServerEnabled() {
		serve, startErr := httpService(gctx, cfg, be, logger)
		if startErr != nil {
			return startErr
		}
		runners = append(runners, serve)
	}

	for _, run := range runners {
		g.Go(run)
	}

	err = g.Wait()
	if err != nil {
		logger.Error("service error", "error", err)
		return err
	}
	logger.Info("services stopped")
	return nil
}

func httpService(ctx context.Context, cfg *ServiceOrchestrationConfig, be backends, logger *slog.Logger) (func() error, error) {
	sessions, err := BuildSessionService(ctx, SessionDeps{
		Config:      cfg.Config,
		DB:          be.db,
		RedisClient: be.redis,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("session service: %w", err)
	}
	server, err := NewHTTPServer(HTTPServerConfig{Config: cfg.Config, Sessions: sessions, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("http server: %w", err)
	}

	ln := cfg.Listener
	if ln == nil {
		var lc net.ListenConfig
		ln, err = lc.Listen(ctx, "tcp", server.Addr)
		if err != nil {
			return nil, fmt.Errorf("listen %s: %w", server.Addr, err)
		}
	}
	return func() error {
		return ServeHTTP(ctx, server, ln, cfg.Config.HTTP.ShutdownTimeout, logger)
	}, nil
}
