package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"docchat/internal/contextutil"
)

// StoreChecker reports whether the chunk store accepts writes.
type StoreChecker interface {
	CheckWritable() error
}

// ModelChecker reports which of the wanted models the Ollama server lacks.
type ModelChecker interface {
	MissingModels(ctx context.Context, wanted ...string) ([]string, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	store              StoreChecker
	models             ModelChecker
	requiredModels     []string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. requiredModels are the chat and
// embedding models the service is configured with.
func NewHealthHandler(store StoreChecker, models ModelChecker, requiredModels ...string) *HealthHandler {
	return &HealthHandler{
		store:              store,
		models:             models,
		requiredModels:     requiredModels,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`

	// Models missing from the Ollama server
	MissingModels []string `json:"missing_models,omitempty"`
}

// ServeHTTP handles GET /health.
// Returns 200 OK if healthy, 503 Service Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Create context with timeout for health checks
	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if err := h.store.CheckWritable(); err != nil {
		logger.WarnContext(ctx, "doc store health check failed", "error", err)
		checks["doc_store"] = "error"
		issues = append(issues, "doc_store_not_writable")
	} else {
		checks["doc_store"] = "ok"
	}

	missing, ok := h.checkModels(checkCtx, logger)
	switch {
	case !ok:
		checks["ollama"] = "error"
		issues = append(issues, "ollama_unavailable")
	case len(missing) > 0:
		checks["ollama"] = "missing_models"
		issues = append(issues, "ollama_models_missing")
	default:
		checks["ollama"] = "ok"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(ctx, w, httpStatus, HealthResponse{
		Status:        status,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Checks:        checks,
		Issues:        issues,
		MissingModels: missing,
	})
}

// checkModels asks Ollama for its model list. ok is false when Ollama could not be reached.
func (h *HealthHandler) checkModels(ctx context.Context, logger *slog.Logger) (missing []string, ok bool) {
	missing, err := h.models.MissingModels(ctx, h.requiredModels...)
	if err != nil {
		logger.WarnContext(ctx, "ollama health check failed", "error", err)
		return nil, false
	}
	if len(missing) > 0 {
		logger.WarnContext(ctx, "configured models not pulled", "missing", missing)
	}
	return missing, true
}
