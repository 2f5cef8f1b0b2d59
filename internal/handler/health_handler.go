package handler

import (
	"net/http"

	"mailreach/internal/service"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	healthService *service.HealthService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(healthService *service.HealthService) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
	}
}

// HandleHealth handles GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := h.healthService.Check(r.Context())

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	WriteJSON(w, code, status)
}
