package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/http/middleware"
	"github.com/francopiloto/finance-api/internal/oauth"
	"github.com/francopiloto/finance-api/internal/service"
)

// defaultDevice is assumed when the client does not identify itself.
const defaultDevice = "web"

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	Auth      *service.AuthService
	Providers *oauth.Providers
	States    *oauth.StateStore
}

func device(c *gin.Context) string {
	if d := c.GetHeader("X-Device-Id"); d != "" {
		return d
	}
	return defaultDevice
}

// Signup registers a local account and returns its first token pair.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	resp, err := h.Auth.RegisterLocal(c.Request.Context(), req.Email, req.Password, device(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Signin authenticates a local account.
func (h *AuthHandler) Signin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	resp, err := h.Auth.LoginLocal(c.Request.Context(), req.Email, req.Password, device(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Signout discards the refresh token for the calling device.
func (h *AuthHandler) Signout(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid access token."})
		return
	}

	if err := h.Auth.Signout(c.Request.Context(), identity.Account.ID, identity.Device); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh rotates the token pair for the calling device. The refresh
// middleware has already verified the stored hash.
func (h *AuthHandler) Refresh(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid refresh token."})
		return
	}

	resp, err := h.Auth.GenerateTokens(c.Request.Context(), identity.Account, identity.Device)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the calling account and its linked user, if any.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid access token."})
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(identity.Account))
}

// OAuthStart redirects the client to the provider's consent page.
func (h *AuthHandler) OAuthStart(c *gin.Context) {
	provider := domain.Provider(c.Param("provider"))
	if !provider.Valid() || provider == domain.ProviderLocal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Unsupported identity provider."})
		return
	}

	state, err := h.States.Save(c.Request.Context(), oauth.LoginState{Provider: provider, Device: device(c)})
	if err != nil {
		respondError(c, err)
		return
	}

	url, err := h.Providers.AuthURL(provider, state)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "provider_not_found", "error_description": "Identity provider not configured."})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// OAuthCallback finishes the provider flow and issues tokens.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	code := c.Query("code")
	stateKey := c.Query("state")
	if code == "" || stateKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "code and state are required."})
		return
	}

	state, err := h.States.Consume(c.Request.Context(), stateKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state", "error_description": "Login state expired or already used."})
		return
	}

	if provider := domain.Provider(c.Param("provider")); provider != state.Provider {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state", "error_description": "Callback provider mismatch."})
		return
	}

	profile, err := h.Providers.Exchange(c.Request.Context(), state.Provider, code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_grant", "error_description": "Provider exchange failed."})
		return
	}

	resp, err := h.Auth.LoginOAuth(c.Request.Context(), profile, state.Device)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type accountResponse struct {
	ID          string        `json:"id"`
	Provider    string        `json:"provider"`
	Email       string        `json:"email,omitempty"`
	Username    string        `json:"username,omitempty"`
	AvatarURL   string        `json:"avatar_url,omitempty"`
	Verified    bool          `json:"verified"`
	LastLoginAt *time.Time    `json:"last_login_at,omitempty"`
	User        *userResponse `json:"user,omitempty"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAccountResponse(account domain.Account) accountResponse {
	resp := accountResponse{
		ID:          account.ID,
		Provider:    string(account.Provider),
		Email:       account.Email,
		Username:    account.Username,
		AvatarURL:   account.AvatarURL,
		Verified:    account.Verified,
		LastLoginAt: account.LastLoginAt,
	}
	if account.User != nil {
		user := toUserResponse(*account.User)
		resp.User = &user
	}
	return resp
}

func toUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
