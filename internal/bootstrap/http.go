package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	performancehub "github.com/kedaara/performance-hub"
	"github.com/kedaara/performance-hub/config"
	httpx "github.com/kedaara/performance-hub/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Sessions httpx.SessionService
	Logger   *slog.Logger
}

// NewHTTPServer builds the portal server. It does not start listening.
func NewHTTPServer(cfg HTTPServerConfig) (*http.Server, error) {
	if cfg.Config == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	var callbackURL string
	if appCfg.Auth.Mode == config.AuthModeOIDC {
		callbackURL = appCfg.Auth.OAuth.RedirectURL
	}

	handler, err := httpx.NewRouter(httpx.RouterServices{
		Sessions: cfg.Sessions,
		Cookies: httpx.CookieConfig{
			SessionName: appCfg.Session.CookieName,
			Domain:      appCfg.HTTP.CookieDomain,
		},
		SSOCallbackURL: callbackURL,
		TemplateFS:     performancehub.TemplateFS(),
		StaticFS:       performancehub.StaticFS(),
		IsDev:          appCfg.IsDev,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: appCfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}

// ServeHTTP serves on ln until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func ServeHTTP(ctx context.Context, server *http.Server, ln net.Listener, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting HTTP server", "addr", ln.Addr().String())
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
