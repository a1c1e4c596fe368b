package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/http/middleware"
	"github.com/francopiloto/finance-api/internal/repository"
	"github.com/francopiloto/finance-api/internal/service"
)

// InstallmentHandler exposes installment listing and lifecycle updates.
type InstallmentHandler struct {
	Installments *service.InstallmentService
}

type installmentResponse struct {
	ID              string     `json:"id"`
	ExpenseID       string     `json:"expense_id"`
	Status          string     `json:"status"`
	Value           float64    `json:"value"`
	BillingMonth    time.Time  `json:"billing_month"`
	PaymentMethodID string     `json:"payment_method_id,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toInstallmentResponse(i domain.Installment) installmentResponse {
	return installmentResponse{
		ID:              i.ID,
		ExpenseID:       i.ExpenseID,
		Status:          string(i.Status),
		Value:           i.Value,
		BillingMonth:    i.BillingMonth,
		PaymentMethodID: i.PaymentMethodID,
		PaidAt:          i.PaidAt,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

// Create appends one installment to an expense owned by the caller.
func (h *InstallmentHandler) Create(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req struct {
		Value           float64   `json:"value" binding:"required,gt=0"`
		BillingMonth    time.Time `json:"billing_month" binding:"required"`
		PaymentMethodID string    `json:"payment_method_id" binding:"omitempty,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	installment, err := h.Installments.Create(c.Request.Context(), identity.User.ID, c.Param("id"), service.CreateInstallmentInput{
		Value:           req.Value,
		BillingMonth:    req.BillingMonth,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toInstallmentResponse(installment))
}

// List returns one page of installments matching the query filters.
func (h *InstallmentHandler) List(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	filter := repository.InstallmentFilter{
		ExpenseID:       c.Query("expense_id"),
		Status:          domain.InstallmentStatus(c.Query("status")),
		PaymentMethodID: c.Query("payment_method_id"),
	}
	if filter.Status != "" && !isKnownStatus(filter.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Unknown installment status."})
		return
	}

	var ok bool
	if filter.BillingMonth, ok = parseMonthQuery(c, "billing_month"); !ok {
		return
	}
	if filter.PaidAt, ok = parseDateQuery(c, "paid_at"); !ok {
		return
	}
	if filter.PaidAtFrom, ok = parseDateQuery(c, "paid_at_from"); !ok {
		return
	}
	if filter.PaidAtTo, ok = parseDateQuery(c, "paid_at_to"); !ok {
		return
	}

	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	installments, total, err := h.Installments.List(c.Request.Context(), identity.User.ID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]installmentResponse, 0, len(installments))
	for _, installment := range installments {
		items = append(items, toInstallmentResponse(installment))
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func (h *InstallmentHandler) Get(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	installment, err := h.Installments.Get(c.Request.Context(), identity.User.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInstallmentResponse(installment))
}

func (h *InstallmentHandler) Update(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req struct {
		Status          string     `json:"status" binding:"omitempty,oneof=PENDING SCHEDULED PAID"`
		PaymentMethodID *string    `json:"payment_method_id" binding:"omitempty"`
		PaidAt          *time.Time `json:"paid_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	installment, err := h.Installments.Update(c.Request.Context(), identity.User.ID, c.Param("id"), service.UpdateInstallmentInput{
		Status:          domain.InstallmentStatus(req.Status),
		PaymentMethodID: req.PaymentMethodID,
		PaidAt:          req.PaidAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInstallmentResponse(installment))
}

func (h *InstallmentHandler) Delete(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	if err := h.Installments.Delete(c.Request.Context(), identity.User.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func isKnownStatus(s domain.InstallmentStatus) bool {
	switch s {
	case domain.InstallmentPending, domain.InstallmentScheduled, domain.InstallmentPaid:
		return true
	}
	return false
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter.
func parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": name + " must be YYYY-MM-DD."})
		return nil, false
	}
	return &t, true
}

// parseMonthQuery reads an optional YYYY-MM query parameter as the first day
// of that month.
func parseMonthQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": name + " must be YYYY-MM."})
		return nil, false
	}
	return &t, true
}
