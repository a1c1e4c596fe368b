package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/francopiloto/finance-api/internal/authn"
)

const identityKey = "identity"

// Auth guards routes with bearer-token validation.
type Auth struct {
	Access  *authn.AccessStrategy
	Refresh *authn.RefreshStrategy
}

// RequireAccess ensures the request carries a valid access token.
func (m *Auth) RequireAccess(c *gin.Context) {
	raw, ok := bearerToken(c)
	if !ok {
		return
	}
	identity, err := m.Access.Validate(c.Request.Context(), raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid access token."})
		return
	}
	c.Set(identityKey, identity)
	c.Next()
}

// RequireRefresh ensures the request carries a valid, still-stored refresh
// token. Used only by the token refresh route.
func (m *Auth) RequireRefresh(c *gin.Context) {
	raw, ok := bearerToken(c)
	if !ok {
		return
	}
	identity, err := m.Refresh.Validate(c.Request.Context(), raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid refresh token."})
		return
	}
	c.Set(identityKey, identity)
	c.Next()
}

// RequireVerified rejects accounts whose email has not been verified.
func (m *Auth) RequireVerified(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok || !identity.Account.Verified {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account_not_verified", "error_description": "Email address has not been verified."})
		return
	}
	c.Next()
}

// RequireUser rejects authenticated accounts that have not finished
// onboarding yet.
func (m *Auth) RequireUser(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok || identity.User == nil {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user_required", "error_description": "Account is not linked to a user."})
		return
	}
	c.Next()
}

// GetIdentity exposes the authenticated identity to handlers.
func GetIdentity(c *gin.Context) (authn.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return authn.Identity{}, false
	}
	identity, ok := value.(authn.Identity)
	return identity, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authorization header required."})
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Bearer token required."})
		return "", false
	}
	return parts[1], true
}
