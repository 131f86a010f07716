package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SnapshotHandler serves the manual capture endpoints. The nightly
// scheduler is the normal trigger; these exist for re-capture after an
// incident.
type SnapshotHandler struct {
	capture CaptureRunner
	log     *logrus.Logger
}

// NewSnapshotHandler creates a SnapshotHandler.
func NewSnapshotHandler(capture CaptureRunner, log *logrus.Logger) *SnapshotHandler {
	return &SnapshotHandler{capture: capture, log: log}
}

// Capture handles POST /api/v1/snapshots/capture. The optional date
// parameter defaults to today.
func (h *SnapshotHandler) Capture(c *gin.Context) {
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}

	day := time.Now()
	if date != nil {
		day = *date
	}

	result, err := h.capture.CaptureDaily(c.Request.Context(), day)
	if err != nil {
		h.log.WithError(err).Error("manual snapshot capture failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	cloned, err := h.capture.CaptureContactHistory(c.Request.Context(), day)
	if err != nil {
		h.log.WithError(err).Error("manual contact history capture failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "snapshot.capture",
		"date":   result.SnapshotDate.Format(dateLayout),
		"rows":   result.RowsCaptured,
	}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"capture": result, "contact_history_rows": cloned})
}
