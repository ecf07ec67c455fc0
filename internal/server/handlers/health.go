package handlers

import (
	"context"

	"github.com/atelierhq/atelier/internal/server/dto"
)

// HealthHandler reports server liveness.
type HealthHandler struct {
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// Health returns the liveness status.
func (h *HealthHandler) Health(_ context.Context, _ *dto.Empty) (*dto.HealthResponse, error) {
	return &dto.HealthResponse{Status: "ok", Version: h.version}, nil
}
