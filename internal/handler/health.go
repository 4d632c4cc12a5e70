// Package handler contains the HTTP handlers.
//
// Handlers are the glue between HTTP and the services:
//  1. Parse the request (path, query, body, auth context)
//  2. Call exactly one service method
//  3. Write the response, mapping errors through writeError
//
// Business rules live in the service package, never here.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

type healthResponse struct {
	Status string `json:"status"`
}

// HandleHealth answers 200 when the store responds within two seconds and
// 503 otherwise.
//
// HTTP: GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
