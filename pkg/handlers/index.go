package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
)

// EndpointInfo describes one public route.
type EndpointInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// IndexResponse is the body of GET /.
type IndexResponse struct {
	Service   string                    `json:"service"`
	Version   string                    `json:"version"`
	Source    string                    `json:"source"`
	Sources   []lookupsource.SourceInfo `json:"available_sources"`
	Endpoints []EndpointInfo            `json:"endpoints"`
}

// Endpoints lists the routes served by this binary.
var Endpoints = []EndpointInfo{
	{Method: http.MethodGet, Path: "/api/data?serialNumber=<serial>", Description: "Look up a PCB repair record by serial number"},
	{Method: http.MethodGet, Path: "/api/stats", Description: "Row count and distinct lots, models, part codes and tickets"},
	{Method: http.MethodGet, Path: "/health", Description: "Liveness check"},
	{Method: http.MethodGet, Path: "/ping", Description: "Service info and source reachability"},
}

// IndexHandler serves API info on / and the JSON 404 for unknown paths.
type IndexHandler struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(cfg *config.Config, logger *zap.Logger) *IndexHandler {
	return &IndexHandler{cfg: cfg, logger: logger}
}

// RegisterRoutes registers / and the JSON 404 catch-all.
func (h *IndexHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("/", h.NotFound)
}

// Index handles GET /.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	response := IndexResponse{
		Service:   ServiceName,
		Version:   h.cfg.Version,
		Source:    h.cfg.Source.Type,
		Sources:   lookupsource.RegisteredSources(),
		Endpoints: Endpoints,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode index response", zap.Error(err))
	}
}

// NotFound answers every unrouted request.
func (h *IndexHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if err := ErrorResponse(w, http.StatusNotFound, "Endpoint not found", "Cannot "+r.Method+" "+r.URL.RequestURI()); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
