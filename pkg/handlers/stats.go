package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/logging"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
	"github.com/ekaya-inc/pcb-lookup/pkg/services"
)

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Success bool          `json:"success"`
	Stats   *models.Stats `json:"stats"`
}

// StatsHandler serves GET /api/stats.
type StatsHandler struct {
	service services.LookupService
	logger  *zap.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(service services.LookupService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{service: service, logger: logger}
}

// RegisterRoutes registers the stats handler's routes on the given mux.
func (h *StatsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stats", h.Stats)
}

// Stats handles GET /api/stats.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	switch {
	case err == nil:
		if err := WriteJSON(w, http.StatusOK, StatsResponse{Success: true, Stats: st}); err != nil {
			h.logger.Error("Failed to encode stats response", zap.Error(err))
		}
	case errors.Is(err, apperrors.ErrStatsUnsupported):
		if err := ErrorResponse(w, http.StatusNotImplemented, "Statistics not available", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	default:
		if err := ErrorResponse(w, http.StatusInternalServerError, errTextDatabase, logging.SanitizeError(err)); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}
