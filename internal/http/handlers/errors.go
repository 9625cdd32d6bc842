package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"airg/internal/auth"
	"airg/internal/repository"
)

// APIError is the JSON error body every handler returns.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string { return e.Code + ": " + e.Message }

func apiError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

var (
	errForbidden   = apiError(http.StatusForbidden, "forbidden", "insufficient role for this organization")
	errUnavailable = apiError(http.StatusServiceUnavailable, "unavailable", "feature not configured")
)

// ContextProjectID is the gin context key holding the project the route
// guard authorized. Project-scoped handlers act on this value only.
const ContextProjectID = "projectID"

func scopedProject(c *gin.Context) string {
	return c.GetString(ContextProjectID)
}

func notFound(what string) *APIError {
	return apiError(http.StatusNotFound, "not_found", what+" not found")
}

func validationFailed(msg string) *APIError {
	return apiError(http.StatusBadRequest, "validation_failed", msg)
}

// respondError maps service errors onto the HTTP taxonomy. Unknown errors
// are logged and reported without detail.
func respondError(c *gin.Context, err error) {
	var apiErr *APIError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &apiErr):
	case errors.Is(err, auth.ErrAuthenticationFailure):
		apiErr = apiError(http.StatusUnauthorized, "authentication_failed", auth.ErrAuthenticationFailure.Error())
	case errors.Is(err, auth.ErrConflict):
		apiErr = apiError(http.StatusConflict, "conflict", auth.ErrConflict.Error())
	case errors.Is(err, auth.ErrInvalidInput):
		apiErr = validationFailed(err.Error())
	case errors.Is(err, repository.ErrNotFound):
		apiErr = notFound("resource")
	case errors.Is(err, repository.ErrDuplicate):
		apiErr = apiError(http.StatusConflict, "conflict", "resource already exists")
	case errors.As(err, &verrs):
		apiErr = validationFailed(verrs.Error())
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		_ = c.Error(err)
		apiErr = apiError(http.StatusInternalServerError, "internal", "internal server error")
	}
	c.AbortWithStatusJSON(apiErr.Status, apiErr)
}

// bindJSON binds and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, validationFailed(err.Error()))
		return false
	}
	return true
}
