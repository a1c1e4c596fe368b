package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// APIError standardizes errors surfaced to HTTP handlers.
type APIError struct {
	Code        string
	Description string
	Status      int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func newAPIError(code, desc string, status int) *APIError {
	return &APIError{Code: code, Description: desc, Status: status}
}

func newConflict(code, desc string) *APIError {
	return newAPIError(code, desc, http.StatusConflict)
}

func newUnauthorized(code, desc string) *APIError {
	return newAPIError(code, desc, http.StatusUnauthorized)
}

func newForbidden(code, desc string) *APIError {
	return newAPIError(code, desc, http.StatusForbidden)
}

func newNotFound(desc string) *APIError {
	return newAPIError("not_found", desc, http.StatusNotFound)
}

func newBadRequest(code, desc string) *APIError {
	return newAPIError(code, desc, http.StatusBadRequest)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
