package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/francopiloto/finance-api/internal/http/middleware"
	"github.com/francopiloto/finance-api/internal/service"
)

// UserHandler exposes onboarding and profile endpoints.
type UserHandler struct {
	Onboarding *service.OnboardingService
	Users      *service.UserService
}

// Create finishes onboarding: it builds the user profile for the calling
// account and returns the upgraded token pair alongside it.
func (h *UserHandler) Create(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid access token."})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,notblank"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	user, tokens, err := h.Onboarding.Onboard(c.Request.Context(), identity.Account, req.Name, identity.Device)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":   toUserResponse(user),
		"tokens": tokens,
	})
}

// Me returns the caller's user profile.
func (h *UserHandler) Me(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	user, err := h.Users.Get(c.Request.Context(), identity.User.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// Update renames the caller's user profile.
func (h *UserHandler) Update(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req struct {
		Name string `json:"name" binding:"required,notblank"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	user, err := h.Users.Update(c.Request.Context(), identity.User.ID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete removes the caller's user profile and everything scoped to it.
func (h *UserHandler) Delete(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	if err := h.Users.Delete(c.Request.Context(), identity.User.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
