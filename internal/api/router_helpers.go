package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/middleware"
	"github.com/recoupio/recoup/internal/models"
	"github.com/recoupio/recoup/internal/service"
	"github.com/recoupio/recoup/internal/ws"
)

const dateLayout = "2006-01-02"

// parseDate parses an optional YYYY-MM-DD query value. A missing value
// yields (nil, true); a malformed one responds 400 and yields ok=false.
func parseDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}

	t, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, name+" must be YYYY-MM-DD")

		return nil, false
	}

	return &t, true
}

// parseDateRange reads the date/from/to trio into a DateRange. It does
// not validate presence; the service decides what the operation needs.
func parseDateRange(c *gin.Context) (service.DateRange, bool) {
	var r service.DateRange
	var ok bool

	if r.Date, ok = parseDate(c, "date"); !ok {
		return r, false
	}
	if r.From, ok = parseDate(c, "from"); !ok {
		return r, false
	}
	if r.To, ok = parseDate(c, "to"); !ok {
		return r, false
	}

	return r, true
}

// requireRange insists on both from and to.
func requireRange(c *gin.Context) (time.Time, time.Time, bool) {
	r, ok := parseDateRange(c)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if r.From == nil || r.To == nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, models.ErrMissingDate.Error())

		return time.Time{}, time.Time{}, false
	}

	return *r.From, *r.To, true
}

// parseBoundaries parses an optional comma-separated day-boundary list,
// e.g. "30,60,90". Empty means service defaults.
func parseBoundaries(c *gin.Context) ([]int, bool) {
	raw := c.Query("boundaries")
	if raw == "" {
		return nil, true
	}

	parts := strings.Split(raw, ",")
	boundaries := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "boundaries must be comma-separated integers")

			return nil, false
		}
		boundaries = append(boundaries, v)
	}

	return boundaries, true
}

// reportFilter reads the shared employee/customer filters.
func reportFilter(c *gin.Context) models.ReportFilter {
	return models.ReportFilter{
		EmployeeCode: c.Query("employee_code"),
		CustomerCode: c.Query("customer_code"),
	}
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}

	return v
}

// wsHandler upgrades the connection and hands it to the hub. Topic
// selection happens via the client's subscribe message.
func wsHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, corsOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// CORS origins are reused as WebSocket origin patterns. The config
		// validator ensures these are safe host patterns (no wildcards etc.).
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       corsOrigins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			log.WithError(err).Error("websocket accept failed")

			return
		}

		client := ws.NewClient(hub, conn)
		hub.Register(client)

		// Derive a context that cancels when either the server shuts down or the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go client.WritePump(wsCtx)
		client.ReadPump(wsCtx)
		wsCancel()
	}
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			fields["request_id"] = rid
		}
		log.WithFields(fields).Info("request")
	}
}
