package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/http/middleware"
	"github.com/francopiloto/finance-api/internal/service"
)

// PaymentMethodHandler exposes payment method CRUD.
type PaymentMethodHandler struct {
	Methods *service.PaymentMethodService
}

type paymentMethodResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Issuer              string    `json:"issuer,omitempty"`
	StatementClosingDay int       `json:"statement_closing_day"`
	DueDay              int       `json:"due_day"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func toPaymentMethodResponse(m domain.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{
		ID:                  m.ID,
		Name:                m.Name,
		Issuer:              m.Issuer,
		StatementClosingDay: m.StatementClosingDay,
		DueDay:              m.DueDay,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

type paymentMethodRequest struct {
	Name                string `json:"name" binding:"required,notblank"`
	Issuer              string `json:"issuer"`
	StatementClosingDay int    `json:"statement_closing_day" binding:"required,min=1,max=31"`
	DueDay              int    `json:"due_day" binding:"required,min=1,max=31"`
}

func (h *PaymentMethodHandler) Create(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req paymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	method, err := h.Methods.Create(c.Request.Context(), domain.PaymentMethod{
		UserID:              identity.User.ID,
		Name:                req.Name,
		Issuer:              req.Issuer,
		StatementClosingDay: req.StatementClosingDay,
		DueDay:              req.DueDay,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentMethodResponse(method))
}

func (h *PaymentMethodHandler) List(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	methods, err := h.Methods.List(c.Request.Context(), identity.User.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]paymentMethodResponse, 0, len(methods))
	for _, m := range methods {
		resp = append(resp, toPaymentMethodResponse(m))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentMethodHandler) Get(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	method, err := h.Methods.Get(c.Request.Context(), identity.User.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentMethodResponse(method))
}

func (h *PaymentMethodHandler) Update(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req paymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	method, err := h.Methods.Update(c.Request.Context(), domain.PaymentMethod{
		ID:                  c.Param("id"),
		UserID:              identity.User.ID,
		Name:                req.Name,
		Issuer:              req.Issuer,
		StatementClosingDay: req.StatementClosingDay,
		DueDay:              req.DueDay,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentMethodResponse(method))
}

func (h *PaymentMethodHandler) Delete(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	if err := h.Methods.Delete(c.Request.Context(), identity.User.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
