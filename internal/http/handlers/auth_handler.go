package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"airg/internal/auth"
)

func setSessionCookie(c *gin.Context, s auth.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge <= 0 {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("token", s.Token, maxAge, "/", "", c.Request.TLS != nil, true)
}

// Login authenticates the user and returns a session token, also set as an
// HttpOnly cookie for the web client.
func Login(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if !bindJSON(c, &input) {
			return
		}

		session, err := svc.Login(c.Request.Context(), input.Email, input.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		setSessionCookie(c, session)
		c.JSON(http.StatusOK, session)
	}
}

// Register creates a user with their own organization and logs them in.
func Register(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email            string `json:"email" binding:"required,email,max=100"`
			Password         string `json:"password" binding:"required,min=8,max=72"`
			Name             string `json:"name" binding:"required,max=100"`
			OrganizationName string `json:"organizationName" binding:"required,max=200"`
		}
		if !bindJSON(c, &input) {
			return
		}

		session, err := svc.Register(c.Request.Context(), auth.RegisterInput{
			Email:    input.Email,
			Password: input.Password,
			Name:     input.Name,
			OrgName:  input.OrganizationName,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		setSessionCookie(c, session)
		c.JSON(http.StatusCreated, session)
	}
}

// Logout clears the session cookie. Tokens are stateless, so nothing is
// revoked server-side.
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie("token", "", -1, "/", "", c.Request.TLS != nil, true)
		c.Status(http.StatusNoContent)
	}
}

// Me returns the authenticated user's public profile.
func Me(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, ok := auth.ClaimsFrom(c)
		if !ok {
			respondError(c, auth.ErrAuthenticationFailure)
			return
		}

		user, err := svc.ActiveUser(c.Request.Context(), cl.UserID())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.Public()})
	}
}

// Organizations lists the caller's active memberships.
func Organizations(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, ok := auth.ClaimsFrom(c)
		if !ok {
			respondError(c, auth.ErrAuthenticationFailure)
			return
		}

		memberships, err := svc.ListOrganizationsForUser(c.Request.Context(), cl.UserID())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"memberships": memberships})
	}
}
