package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger checks that the database answers
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness
type HealthHandler struct {
	db     Pinger
	logger *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// Healthz answers 200 when the database is reachable
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		respondWithError(h.logger, w, http.StatusServiceUnavailable, "database unavailable", "Health check failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
