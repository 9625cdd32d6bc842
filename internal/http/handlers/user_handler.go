package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"airg/internal/auth"
)

// ChangePassword lets the signed-in user replace their own password.
func ChangePassword(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": "missing bearer token"})
			return
		}

		var input struct {
			CurrentPassword string `json:"currentPassword" binding:"required"`
			NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
		}
		if !bindJSON(c, &input) {
			return
		}

		if err := svc.ChangePassword(c.Request.Context(), claims.UserID(), input.CurrentPassword, input.NewPassword); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
