package handlers

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/audit"
	"github.com/ekaya-inc/pcb-lookup/pkg/logging"
	"github.com/ekaya-inc/pcb-lookup/pkg/services"
)

// SerialNumberParam is the query parameter carrying the lookup key.
const SerialNumberParam = "serialNumber"

// QueryTimeHeader carries the source query time in milliseconds on a found record.
const QueryTimeHeader = "X-Query-Time-Ms"

// Error texts of the /api/data contract.
const (
	errTextDatabase = "Database error occurred"
)

// LookupHandler serves GET /api/data.
type LookupHandler struct {
	service services.LookupService
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewLookupHandler creates a new LookupHandler.
func NewLookupHandler(service services.LookupService, auditor *audit.SecurityAuditor, logger *zap.Logger) *LookupHandler {
	return &LookupHandler{
		service: service,
		auditor: auditor,
		logger:  logger,
	}
}

// RegisterRoutes registers the lookup handler's routes on the given mux.
// Other methods on /api/data fall through to the JSON 404.
func (h *LookupHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/data", h.Lookup)
}

// Lookup handles GET /api/data?serialNumber=...
// 200 returns the repair record; 400, 404 and 500 return ErrorBody or NotFoundBody.
func (h *LookupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	serial := r.URL.Query().Get(SerialNumberParam)
	ip := clientIP(r)

	if strings.TrimSpace(serial) == "" {
		h.auditor.LogParameterValidation(ctx, "serialNumber missing or blank", ip)
	} else {
		h.auditor.InspectSerial(ctx, SerialNumberParam, serial, ip)
	}

	result, err := h.service.Lookup(ctx, serial)
	switch {
	case err == nil:
		w.Header().Set(QueryTimeHeader, strconv.FormatInt(result.QueryTime.Milliseconds(), 10))
		if err := WriteJSON(w, http.StatusOK, result.Record); err != nil {
			h.logger.Error("Failed to encode lookup response", zap.Error(err))
		}
	case apperrors.IsValidation(err):
		if err := ErrorResponse(w, http.StatusBadRequest, apperrors.ErrSerialRequired.Error(), ""); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	case apperrors.IsNotFound(err):
		body := NotFoundBody{Success: false, Message: err.Error()}
		var nf *apperrors.NotFoundError
		if errors.As(err, &nf) {
			body.QueryTime = nf.QueryTime.Milliseconds()
		}
		if err := WriteJSON(w, http.StatusNotFound, body); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	default:
		if err := ErrorResponse(w, http.StatusInternalServerError, errTextDatabase, logging.SanitizeError(err)); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}

// clientIP prefers the first X-Forwarded-For hop and falls back to the peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
