package bootstrap

import (
	"io"
	"log/slog"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/require"

	"github.com/kedaara/performance-hub/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig parses an AppConfig from vars alone, ignoring the process environment.
func testConfig(t *testing.T, vars map[string]string) *config.AppConfig {
	t.Helper()
	if vars == nil {
		vars = map[string]string{}
	}
	var cfg config.AppConfig
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: vars}))
	cfg.Sanitize()
	return &cfg
}
