package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RelayHandler serves the relay admin endpoints.
type RelayHandler struct {
	relay RelayController
	log   *logrus.Logger
}

// NewRelayHandler creates a RelayHandler.
func NewRelayHandler(relay RelayController, log *logrus.Logger) *RelayHandler {
	return &RelayHandler{relay: relay, log: log}
}

// Status handles GET /api/v1/relay/status.
func (h *RelayHandler) Status(c *gin.Context) {
	status, err := h.relay.Status(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("reading relay status")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, status)
}

// Reprocess handles POST /api/v1/relay/reprocess. It rewinds the relay
// so the full change log is delivered again.
func (h *RelayHandler) Reprocess(c *gin.Context) {
	reset, err := h.relay.ForceReprocessAll(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("forcing relay reprocess")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "relay.reprocess", "entries": reset}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"reset_entries": reset})
}
