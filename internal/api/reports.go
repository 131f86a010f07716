package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/models"
	"github.com/recoupio/recoup/internal/service"
)

// ReportHandler serves the reporting endpoints. Every endpoint accepts
// the optional employee_code/customer_code filters; date parameters are
// YYYY-MM-DD.
type ReportHandler struct {
	reports ReportResolver
	log     *logrus.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(reports ReportResolver, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, log: log}
}

// respond maps service errors onto the API error codes.
func (h *ReportHandler) respond(c *gin.Context, result any, err error, what string) {
	if err != nil {
		if isBadRequest(err) {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

			return
		}

		h.log.WithError(err).Error(what)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, result)
}

// Overview handles GET /api/v1/reports/overview.
func (h *ReportHandler) Overview(c *gin.Context) {
	r, ok := parseDateRange(c)
	if !ok {
		return
	}

	overview, err := h.reports.Overview(c.Request.Context(), r, reportFilter(c))
	h.respond(c, overview, err, "resolving overview")
}

// Trend handles GET /api/v1/reports/trend.
func (h *ReportHandler) Trend(c *gin.Context) {
	from, to, ok := requireRange(c)
	if !ok {
		return
	}

	points, err := h.reports.Trend(c.Request.Context(), from, to, reportFilter(c))
	h.respond(c, gin.H{"points": points}, err, "resolving trend")
}

// asOfDate reads the optional date parameter, defaulting to today.
func asOfDate(c *gin.Context) (time.Time, bool) {
	date, ok := parseDate(c, "date")
	if !ok {
		return time.Time{}, false
	}
	if date == nil {
		return time.Now(), true
	}

	return *date, true
}

// Aging handles GET /api/v1/reports/aging.
func (h *ReportHandler) Aging(c *gin.Context) {
	asOf, ok := asOfDate(c)
	if !ok {
		return
	}
	boundaries, ok := parseBoundaries(c)
	if !ok {
		return
	}

	buckets, err := h.reports.Aging(c.Request.Context(), asOf, boundaries, reportFilter(c))
	h.respond(c, gin.H{"as_of": asOf.Format(dateLayout), "buckets": buckets}, err, "resolving aging")
}

// AgingDaily handles GET /api/v1/reports/aging/daily.
func (h *ReportHandler) AgingDaily(c *gin.Context) {
	from, to, ok := requireRange(c)
	if !ok {
		return
	}
	boundaries, ok := parseBoundaries(c)
	if !ok {
		return
	}

	days, err := h.reports.AgingDaily(c.Request.Context(), from, to, boundaries, reportFilter(c))
	h.respond(c, gin.H{"days": days}, err, "resolving daily aging")
}

// PayLaterDelay handles GET /api/v1/reports/pay-later-delay.
func (h *ReportHandler) PayLaterDelay(c *gin.Context) {
	asOf, ok := asOfDate(c)
	if !ok {
		return
	}
	boundaries, ok := parseBoundaries(c)
	if !ok {
		return
	}

	buckets, err := h.reports.PayLaterDelay(c.Request.Context(), asOf, boundaries, reportFilter(c))
	h.respond(c, gin.H{"as_of": asOf.Format(dateLayout), "buckets": buckets}, err, "resolving pay-later delay")
}

// PayLaterDelayDaily handles GET /api/v1/reports/pay-later-delay/daily.
func (h *ReportHandler) PayLaterDelayDaily(c *gin.Context) {
	from, to, ok := requireRange(c)
	if !ok {
		return
	}
	boundaries, ok := parseBoundaries(c)
	if !ok {
		return
	}

	days, err := h.reports.PayLaterDelayDaily(c.Request.Context(), from, to, boundaries, reportFilter(c))
	h.respond(c, gin.H{"days": days}, err, "resolving daily pay-later delay")
}

// ContactResponses handles GET /api/v1/reports/contact-responses.
func (h *ReportHandler) ContactResponses(c *gin.Context) {
	r, ok := parseDateRange(c)
	if !ok {
		return
	}
	mode := c.DefaultQuery("mode", service.ModeEvents)

	counts, err := h.reports.ContactResponses(c.Request.Context(), mode, r, reportFilter(c))
	h.respond(c, gin.H{"mode": mode, "responses": counts}, err, "resolving contact responses")
}

// ContactResponsesDaily handles GET /api/v1/reports/contact-responses/daily.
func (h *ReportHandler) ContactResponsesDaily(c *gin.Context) {
	from, to, ok := requireRange(c)
	if !ok {
		return
	}

	days, err := h.reports.ContactResponsesDaily(c.Request.Context(), from, to, reportFilter(c))
	h.respond(c, gin.H{"days": days}, err, "resolving daily contact responses")
}

// ContactDetails handles GET /api/v1/reports/contact-details.
func (h *ReportHandler) ContactDetails(c *gin.Context) {
	mode := c.DefaultQuery("mode", service.ModeDistribution)
	status := models.RemindStatus(c.Query("status"))
	page := parseInt(c.DefaultQuery("page", "1"), 1)
	limit := parseInt(c.DefaultQuery("limit", "20"), 20)

	switch mode {
	case service.ModeDistribution:
		result, err := h.reports.ContactDetailsDistribution(c.Request.Context(), status, page, limit)
		h.respond(c, result, err, "resolving contact details")
	case service.ModeEvents:
		r, ok := parseDateRange(c)
		if !ok {
			return
		}
		result, err := h.reports.ContactDetailsEvents(c.Request.Context(), r, status, page, limit)
		h.respond(c, result, err, "resolving contact detail events")
	default:
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, models.ErrInvalidMode.Error())
	}
}

// Detailed handles GET /api/v1/reports/detailed.
func (h *ReportHandler) Detailed(c *gin.Context) {
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}

	day := time.Now()
	if date != nil {
		day = *date
	}

	opts := models.DetailOpts{
		Status:       models.DebtStatus(c.Query("status")),
		EmployeeCode: c.Query("employee_code"),
		CustomerCode: c.Query("customer_code"),
		Page:         parseInt(c.DefaultQuery("page", "1"), 1),
		Limit:        parseInt(c.DefaultQuery("limit", "20"), 20),
	}

	result, err := h.reports.Detailed(c.Request.Context(), day, opts)
	h.respond(c, result, err, "resolving detailed rows")
}

// EmployeePerformance handles GET /api/v1/reports/employee-performance.
func (h *ReportHandler) EmployeePerformance(c *gin.Context) {
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}

	performance, err := h.reports.EmployeePerformance(c.Request.Context(), date)
	h.respond(c, gin.H{"employees": performance}, err, "resolving employee performance")
}
