package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/http/middleware"
	"github.com/francopiloto/finance-api/internal/service"
)

// ExpenseHandler exposes expense CRUD.
type ExpenseHandler struct {
	Expenses *service.ExpenseService
}

type expenseResponse struct {
	ID           string                `json:"id"`
	Group        *expenseGroupResponse `json:"group,omitempty"`
	Date         time.Time             `json:"date"`
	Priority     string                `json:"priority"`
	Description  string                `json:"description"`
	Beneficiary  string                `json:"beneficiary,omitempty"`
	Installments []installmentResponse `json:"installments,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

func toExpenseResponse(e domain.Expense) expenseResponse {
	resp := expenseResponse{
		ID:          e.ID,
		Date:        e.Date,
		Priority:    string(e.Priority),
		Description: e.Description,
		Beneficiary: e.Beneficiary,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Group != nil {
		group := toExpenseGroupResponse(*e.Group)
		resp.Group = &group
	}
	for _, installment := range e.Installments {
		resp.Installments = append(resp.Installments, toInstallmentResponse(installment))
	}
	return resp
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req struct {
		GroupID          string    `json:"group_id" binding:"required,uuid"`
		Date             time.Time `json:"date" binding:"required"`
		Priority         string    `json:"priority" binding:"required,oneof=ESSENTIAL IMPORTANT OPTIONAL"`
		Description      string    `json:"description" binding:"required"`
		Beneficiary      string    `json:"beneficiary"`
		Value            float64   `json:"value" binding:"required,gt=0"`
		InstallmentCount int       `json:"installment_count" binding:"omitempty,min=1,max=120"`
		PaymentMethodID  string    `json:"payment_method_id" binding:"omitempty,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	expense, err := h.Expenses.Create(c.Request.Context(), identity.User.ID, service.CreateExpenseInput{
		GroupID:          req.GroupID,
		Date:             req.Date,
		Priority:         domain.ExpensePriority(req.Priority),
		Description:      req.Description,
		Beneficiary:      req.Beneficiary,
		Value:            req.Value,
		InstallmentCount: req.InstallmentCount,
		PaymentMethodID:  req.PaymentMethodID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toExpenseResponse(expense))
}

func (h *ExpenseHandler) Get(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	expense, err := h.Expenses.Get(c.Request.Context(), identity.User.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toExpenseResponse(expense))
}

func (h *ExpenseHandler) Update(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req struct {
		GroupID     string     `json:"group_id" binding:"omitempty,uuid"`
		Date        *time.Time `json:"date"`
		Priority    string     `json:"priority" binding:"omitempty,oneof=ESSENTIAL IMPORTANT OPTIONAL"`
		Description string     `json:"description"`
		Beneficiary *string    `json:"beneficiary"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	expense, err := h.Expenses.Update(c.Request.Context(), identity.User.ID, c.Param("id"), service.UpdateExpenseInput{
		GroupID:     req.GroupID,
		Date:        req.Date,
		Priority:    domain.ExpensePriority(req.Priority),
		Description: req.Description,
		Beneficiary: req.Beneficiary,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toExpenseResponse(expense))
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	if err := h.Expenses.Delete(c.Request.Context(), identity.User.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
