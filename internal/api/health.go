// Package api provides the HTTP handlers for the recoup server.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/dbpool"
	"github.com/recoupio/recoup/internal/ws"
)

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	pool      *dbpool.Pool
	hub       *ws.Hub
	relay     RelayController
	log       *logrus.Logger
	version   string
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler with the given dependencies.
func NewHealthHandler(pool *dbpool.Pool, hub *ws.Hub, relay RelayController, log *logrus.Logger, version string) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		hub:       hub,
		relay:     relay,
		log:       log,
		version:   version,
		startTime: time.Now(),
	}
}

// healthResponse is the JSON payload returned by the health/liveness endpoint.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	Clients       int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// readinessResponse is the JSON payload returned by the readiness endpoint.
type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Liveness handles GET /api/v1/health.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		Database:      "connected",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	if h.hub != nil {
		resp.Clients = h.hub.ClientCount()
	}

	// Best-effort database ping (non-fatal for liveness).
	if h.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.pool.HealthCheck(ctx); err != nil {
			resp.Database = "disconnected"
		}
	} else {
		resp.Database = "not_configured"
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready. Not ready until the database
// answers and the relay reports running.
func (h *HealthHandler) Readiness(c *gin.Context) {
	resp := readinessResponse{
		Status: "ready",
		Checks: map[string]string{
			"database": "ok",
			"relay":    "ok",
		},
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.pool == nil {
		resp.Checks["database"] = "not_configured"
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	} else if err := h.pool.HealthCheck(ctx); err != nil {
		h.log.WithError(err).Warn("readiness database check failed")
		resp.Checks["database"] = "failed"
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}

	if h.relay != nil {
		if st, err := h.relay.Status(ctx); err != nil || !st.Running {
			resp.Checks["relay"] = "not_running"
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, resp)
}
