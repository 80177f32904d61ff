package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/services"
)

// ServiceName identifies this binary in /ping and /.
const ServiceName = "pcb-lookup"

// PingResponse contains service status, version and source reachability.
type PingResponse struct {
	Status      string                `json:"status"`
	Version     string                `json:"version"`
	Service     string                `json:"service"`
	GoVersion   string                `json:"go_version"`
	Hostname    string                `json:"hostname"`
	Environment string                `json:"environment"`
	Source      services.SourceHealth `json:"source"`
	LatencyMS   int64                 `json:"source_latency_ms"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg     *config.Config
	service services.LookupService
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler with the given configuration.
func NewHealthHandler(cfg *config.Config, service services.LookupService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, service: service, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ping", h.Ping)
}

// Health handles GET /health requests.
// It never touches the backing source, so it stays cheap for liveness checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping handles GET /ping requests.
// Returns service information and pings the source; 503 when it is unreachable.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	health := h.service.CheckSource(r.Context())

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     ServiceName,
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
		Source:      health,
		LatencyMS:   health.Latency.Milliseconds(),
	}

	status := http.StatusOK
	if !health.Reachable {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	if err := WriteJSON(w, status, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
