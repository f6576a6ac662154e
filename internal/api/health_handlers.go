package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mimyapp/tasteranker/internal/health"
)

// HealthHandlers provides health and readiness check endpoints for probes.
type HealthHandlers struct {
	dbChecker    health.Checker
	redisChecker health.Checker
}

// HealthHandlersConfig configures the health check handlers. Nil checkers
// are treated as not configured and reported healthy.
type HealthHandlersConfig struct {
	DBChecker    health.Checker
	RedisChecker health.Checker
}

// NewHealthHandlers creates a new health check handler.
func NewHealthHandlers(config HealthHandlersConfig) *HealthHandlers {
	return &HealthHandlers{
		dbChecker:    config.DBChecker,
		redisChecker: config.RedisChecker,
	}
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe).
// Returns 200 if the process is alive and can serve requests.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	WriteJSON(w, r.Context(), http.StatusOK, response)
}

// Ready handles GET /ready (readiness probe).
// Checks database and Redis connectivity and returns 503 if either fails.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	healthy = runCheck(ctx, checks, "database", h.dbChecker) && healthy
	healthy = runCheck(ctx, checks, "redis", h.redisChecker) && healthy

	status := "healthy"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	WriteJSON(w, r.Context(), statusCode, response)
}

// runCheck records the check result and returns whether it passed.
// A nil checker means the dependency is not configured and passes.
func runCheck(ctx context.Context, checks map[string]string, name string, checker health.Checker) bool {
	if checker == nil {
		checks[name] = "ok"
		return true
	}
	if err := checker.HealthCheck(ctx); err != nil {
		checks[name] = "error"
		slog.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
		return false
	}
	checks[name] = "ok"
	return true
}
