package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/kedaara/performance-hub/internal/errors"
)

const readinessTimeout = 3 * time.Second

// HealthChecker reports whether the portal's dependencies are reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	Checker HealthChecker
	Logger  *slog.Logger
}

// Live reports that the process is serving.
// GET /healthz.
func (h *HealthHandlers) Live(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready checks the session store and the authentication collaborator.
// GET /readyz.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.Checker.Health(ctx); err != nil {
		logger := h.Logger
		if logger == nil {
			logger = slog.Default()
		}
		level := slog.LevelError
		if apperrors.IsUnavailable(err) || apperrors.IsTimeout(err) {
			level = slog.LevelWarn
		}
		logger.Log(r.Context(), level, "readiness check failed", "error", err)
		WriteError(w, ErrorParams{
			Status:   http.StatusServiceUnavailable,
			Fallback: apperrors.ErrCodeUnavailable,
			Err:      err,
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
