package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kedaara/performance-hub/config"
	"github.com/kedaara/performance-hub/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "application failed", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // main must report startup failure to the process supervisor
	}
}

func run(ctx context.Context) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger := bootstrap.InitLogger(cfg.IsDev)
	logStartupInfo(ctx, logger, &cfg)

	return bootstrap.Run(ctx, &bootstrap.ServiceOrchestrationConfig{
		Config: &cfg,
		Logger: logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting performance hub",
		"services", strings.Join(bootstrap.GetEnabledServices(cfg), ","),
		"addr", cfg.HTTP.Addr,
		"auth_mode", cfg.Auth.Mode,
		"session_backend", cfg.Session.Backend,
		"session_ttl", cfg.Session.TTL.String(),
		"dev", cfg.IsDev,
	)
}
