package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/toptube-go/internal/core/domain"
	"github.com/yndnr/toptube-go/internal/telemetry/logger"
)

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, r, http.StatusOK, StatusResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready. It pings the snapshot store.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			logger.L(r.Context()).Warn("readiness check failed", "error", err)
			WriteError(w, r, http.StatusServiceUnavailable, domain.ErrStoreUnavailable.Code,
				domain.ErrStoreUnavailable.Message, map[string]string{"reason": ReasonStoreUnavailable})
			return
		}
	}

	writeStatus(w, r, http.StatusOK, StatusResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// APIHealth handles GET /api/health.
func (h *Handler) APIHealth(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, r, http.StatusOK, APIHealthResponse{
		OK:      true,
		Service: h.service,
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Version: h.version,
	})
}
