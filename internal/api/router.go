package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/dbpool"
	"github.com/recoupio/recoup/internal/middleware"
	"github.com/recoupio/recoup/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Pool        *dbpool.Pool
	Hub         *ws.Hub
	Reports     ReportResolver
	Debts       DebtRepository
	Relay       RelayController
	Capture     CaptureRunner
	CORSOrigins []string
	Version     string
}

// maxBodySize caps request bodies (1 MB; payloads here are small).
const maxBodySize = 1 << 20

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (outside the API group, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Hub, deps.Relay, log, deps.Version)
	reports := NewReportHandler(deps.Reports, log)
	debts := NewDebtHandler(deps.Debts, log)
	relayAdmin := NewRelayHandler(deps.Relay, log)
	snapshots := NewSnapshotHandler(deps.Capture, log)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// Reports.
	api.GET("/reports/overview", reports.Overview)
	api.GET("/reports/trend", reports.Trend)
	api.GET("/reports/aging", reports.Aging)
	api.GET("/reports/aging/daily", reports.AgingDaily)
	api.GET("/reports/pay-later-delay", reports.PayLaterDelay)
	api.GET("/reports/pay-later-delay/daily", reports.PayLaterDelayDaily)
	api.GET("/reports/contact-responses", reports.ContactResponses)
	api.GET("/reports/contact-responses/daily", reports.ContactResponsesDaily)
	api.GET("/reports/contact-details", reports.ContactDetails)
	api.GET("/reports/detailed", reports.Detailed)
	api.GET("/reports/employee-performance", reports.EmployeePerformance)

	// Live debts.
	api.GET("/debts", debts.List)
	api.GET("/debts/:id", debts.Get)
	api.PATCH("/debts/:id", debts.Update)

	// Relay admin.
	api.GET("/relay/status", relayAdmin.Status)
	api.POST("/relay/reprocess", relayAdmin.Reprocess)

	// Snapshots.
	api.POST("/snapshots/capture", snapshots.Capture)

	// WebSocket endpoint.
	api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
