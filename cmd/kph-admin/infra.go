package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/kedaara/performance-hub/config"
	"github.com/kedaara/performance-hub/internal/adapters/pgstore"
	"github.com/kedaara/performance-hub/internal/bootstrap"
	"github.com/kedaara/performance-hub/internal/ports"
)

var errMemoryBackend = errors.New("the memory session backend lives inside the server process and cannot be reached from the CLI")

func connectDB(ctx context.Context, cmdCtx *commandContext) (*sql.DB, error) {
	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

func closeDB(logger *slog.Logger, db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("db close failed", "error", err)
	}
}

func openPurger(ctx context.Context, cmdCtx *commandContext) (ports.SessionPurger, func(), error) {
	if cmdCtx.Config.Session.Backend != config.SessionBackendPostgres {
		return nil, nil, fmt.Errorf("purge-sessions requires SESSION_BACKEND=postgres (got %q)", cmdCtx.Config.Session.Backend)
	}
	db, err := connectDB(ctx, cmdCtx)
	if err != nil {
		return nil, nil, err
	}
	return pgstore.NewSessionStore(db), func() { closeDB(cmdCtx.Logger, db) }, nil
}

// openSessionStore connects to whichever shared backend the server is configured with.
//
//nolint:ireturn // the backend is chosen from configuration
func openSessionStore(ctx context.Context, cmdCtx *commandContext) (ports.SessionStore, func(), error) {
	deps := bootstrap.SessionDeps{Config: &cmdCtx.Config, Logger: cmdCtx.Logger}
	release := func() {}

	switch cmdCtx.Config.Session.Backend {
	case config.SessionBackendRedis:
		client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{
			RedisConfig: cmdCtx.Config.Redis,
			Logger:      cmdCtx.Logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		deps.RedisClient = client
		release = func() { closeRedis(cmdCtx.Logger, client) }
	case config.SessionBackendPostgres:
		db, err := connectDB(ctx, cmdCtx)
		if err != nil {
			return nil, nil, err
		}
		deps.DB = db
		release = func() { closeDB(cmdCtx.Logger, db) }
	default:
		return nil, nil, errMemoryBackend
	}

	store, err := bootstrap.BuildSessionStore(deps)
	if err != nil {
		release()
		return nil, nil, err
	}
	return store, release, nil
}

func closeRedis(logger *slog.Logger, client redis.UniversalClient) {
	if err := client.Close(); err != nil {
		logger.Warn("redis close failed", "error", err)
	}
}
