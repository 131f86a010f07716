package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/models"
)

// DebtHandler serves the live debt endpoints.
type DebtHandler struct {
	debts DebtRepository
	log   *logrus.Logger
}

// NewDebtHandler creates a DebtHandler.
func NewDebtHandler(debts DebtRepository, log *logrus.Logger) *DebtHandler {
	return &DebtHandler{debts: debts, log: log}
}

func debtID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "id must be a positive integer")

		return 0, false
	}

	return id, true
}

// List handles GET /api/v1/debts.
func (h *DebtHandler) List(c *gin.Context) {
	opts := models.DebtListOpts{
		Status:       models.DebtStatus(c.Query("status")),
		EmployeeCode: c.Query("employee_code"),
		CustomerCode: c.Query("customer_code"),
		Limit:        parseInt(c.DefaultQuery("limit", "20"), 20),
	}
	page := parseInt(c.DefaultQuery("page", "1"), 1)

	result, err := h.debts.List(c.Request.Context(), opts, page)
	if err != nil {
		h.log.WithError(err).Error("listing debts")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/debts/:id.
func (h *DebtHandler) Get(c *gin.Context) {
	id, ok := debtID(c)
	if !ok {
		return
	}

	debt, err := h.debts.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrDebtNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "debt not found")

			return
		}

		h.log.WithError(err).Error("getting debt")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, debt)
}

// Update handles PATCH /api/v1/debts/:id.
func (h *DebtHandler) Update(c *gin.Context) {
	id, ok := debtID(c)
	if !ok {
		return
	}

	var req models.UpdateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")

		return
	}

	debt, err := h.debts.Update(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDebtNotFound):
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "debt not found")
		case isBadRequest(err):
			respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		default:
			h.log.WithError(err).Error("updating debt")
			respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		}

		return
	}

	h.log.WithFields(logrus.Fields{"action": "debt.update", "debt_id": id}).Info("audit")

	c.JSON(http.StatusOK, debt)
}
