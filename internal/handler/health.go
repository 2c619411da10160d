package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks that a backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionChecker reports a live connection.
type ConnectionChecker interface {
	IsConnected() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store Pinger
	cache Pinger
	nats  ConnectionChecker
}

// NewHealthHandler creates a new HealthHandler. cache and nats may be nil
// when those backends are not configured.
func NewHealthHandler(store Pinger, cache Pinger, nats ConnectionChecker) *HealthHandler {
	return &HealthHandler{store: store, cache: cache, nats: nats}
}

// Health is a simple liveness check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether every dependency is reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status":   "ready",
		"database": "connected",
		"cache":    "disabled",
		"nats":     "disabled",
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		response["status"] = "not_ready"
		response["database"] = "disconnected"
		status = http.StatusServiceUnavailable
	}

	if h.cache != nil {
		response["cache"] = "connected"
		if err := h.cache.Ping(ctx); err != nil {
			response["status"] = "not_ready"
			response["cache"] = "disconnected"
			status = http.StatusServiceUnavailable
		}
	}

	if h.nats != nil {
		response["nats"] = "connected"
		if !h.nats.IsConnected() {
			response["status"] = "not_ready"
			response["nats"] = "disconnected"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, response)
}
