package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/http/middleware"
	"github.com/francopiloto/finance-api/internal/service"
)

// ExpenseGroupHandler exposes expense group CRUD.
type ExpenseGroupHandler struct {
	Groups *service.ExpenseGroupService
}

type expenseGroupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Shared    bool      `json:"shared"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toExpenseGroupResponse(g domain.ExpenseGroup) expenseGroupResponse {
	return expenseGroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		Shared:    g.CreatedBy == "",
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func (h *ExpenseGroupHandler) Create(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req struct {
		Name string `json:"name" binding:"required,notblank"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	group, err := h.Groups.Create(c.Request.Context(), identity.User.ID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toExpenseGroupResponse(group))
}

func (h *ExpenseGroupHandler) List(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	groups, err := h.Groups.List(c.Request.Context(), identity.User.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]expenseGroupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, toExpenseGroupResponse(g))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ExpenseGroupHandler) Get(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	group, err := h.Groups.Get(c.Request.Context(), identity.User.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toExpenseGroupResponse(group))
}

func (h *ExpenseGroupHandler) Update(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req struct {
		Name string `json:"name" binding:"required,notblank"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	group, err := h.Groups.Update(c.Request.Context(), identity.User.ID, c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toExpenseGroupResponse(group))
}

func (h *ExpenseGroupHandler) Delete(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	if err := h.Groups.Delete(c.Request.Context(), identity.User.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
