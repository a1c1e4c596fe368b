package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/http/middleware"
	"github.com/francopiloto/finance-api/internal/service"
)

// WalletHandler exposes wallet CRUD.
type WalletHandler struct {
	Wallets *service.WalletService
}

type walletResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toWalletResponse(w domain.Wallet) walletResponse {
	return walletResponse{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func (h *WalletHandler) Create(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req struct {
		Name        string `json:"name" binding:"required,notblank"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	wallet, err := h.Wallets.Create(c.Request.Context(), domain.Wallet{
		UserID:      identity.User.ID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toWalletResponse(wallet))
}

func (h *WalletHandler) List(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	wallets, err := h.Wallets.List(c.Request.Context(), identity.User.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]walletResponse, 0, len(wallets))
	for _, w := range wallets {
		resp = append(resp, toWalletResponse(w))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WalletHandler) Get(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	wallet, err := h.Wallets.Get(c.Request.Context(), identity.User.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWalletResponse(wallet))
}

func (h *WalletHandler) Update(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req struct {
		Name        string `json:"name" binding:"required,notblank"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	wallet, err := h.Wallets.Update(c.Request.Context(), domain.Wallet{
		ID:          c.Param("id"),
		UserID:      identity.User.ID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWalletResponse(wallet))
}

func (h *WalletHandler) Delete(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	if err := h.Wallets.Delete(c.Request.Context(), identity.User.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
