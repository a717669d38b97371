package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/twstock/pkg/database"
	"github.com/wonny/twstock/pkg/logger"
)

// HealthChecker reports store connectivity
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// CoverageReader reports the latest stored trading date
type CoverageReader interface {
	MaxDate(ctx context.Context) (time.Time, bool, error)
}

// HealthHandler serves the health endpoint
type HealthHandler struct {
	db       HealthChecker
	coverage CoverageReader
	logger   *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db HealthChecker, coverage CoverageReader, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, coverage: coverage, logger: log}
}

// Health returns service and store status
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"status":  "ok",
		"service": "twstock-api",
	}

	dbStatus, err := h.db.HealthCheck(ctx)
	body["database"] = dbStatus
	if err != nil {
		h.logger.WithError(err).Warn("Health check failed")
		body["status"] = "degraded"
		respondJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	maxDate, ok, err := h.coverage.MaxDate(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Coverage lookup failed")
	}
	body["maxdate"] = formatDate(maxDate, ok && err == nil)

	respondJSON(w, http.StatusOK, body)
}
