package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/francopiloto/finance-api/internal/service"
)

// respondError maps service errors onto the wire format. Anything that is
// not an APIError is an internal failure and stays opaque to the client.
func respondError(c *gin.Context, err error) {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Code, "error_description": apiErr.Description})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Internal server error."})
}

func respondInvalidPayload(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
}
