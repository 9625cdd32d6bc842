package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"airg/internal/auth"
	"airg/internal/models"
	"airg/internal/rbac"
	"airg/internal/repository"
)

// ListMembers returns the active memberships of an organization with the
// users attached.
func ListMembers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		members, err := repository.New[models.Membership](db).FindByFilter(c.Request.Context(), repository.Filter{
			Where:   map[string]any{"organization_id": c.Param("orgId"), "is_active": true},
			Preload: []string{"User"},
			Order:   "created_at ASC",
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"members": members})
	}
}

// InviteMember grants an existing user a role in the organization. A
// previously deactivated membership is reactivated in place so the pair
// keeps a single row. The caller can never grant more than they hold nor
// change the role of an active member who outranks them.
func InviteMember(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email string `json:"email" binding:"required,email"`
			Role  string `json:"role" binding:"required"`
		}
		if !bindJSON(c, &input) {
			return
		}

		role, err := rbac.ParseRole(input.Role)
		if err != nil {
			respondError(c, validationFailed(err.Error()))
			return
		}

		ctx := c.Request.Context()
		orgID := c.Param("orgId")

		cl, _ := auth.ClaimsFrom(c)
		callerRole, ok, err := rbac.Checker{DB: db}.RoleIn(ctx, cl.UserID(), orgID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !ok || !callerRole.AtLeast(role) {
			respondError(c, errForbidden)
			return
		}

		user, err := repository.New[models.User](db).FindOne(ctx, repository.Filter{
			Where: map[string]any{"email": strings.ToLower(strings.TrimSpace(input.Email))},
		})
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, notFound("user"))
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}

		memberships := repository.New[models.Membership](db)
		membership, err := memberships.FindOne(ctx, repository.Filter{
			Where: map[string]any{"user_id": user.ID, "organization_id": orgID},
		})
		switch {
		case errors.Is(err, repository.ErrNotFound):
			membership = &models.Membership{UserID: user.ID, OrganizationID: orgID}
		case err != nil:
			respondError(c, err)
			return
		case membership.IsActive && !callerRole.AtLeast(membership.Role):
			respondError(c, errForbidden)
			return
		case membership.IsActive && membership.Role == rbac.RoleOwner && role != rbac.RoleOwner:
			if !keepsOwner(c, memberships, orgID) {
				return
			}
		}
		membership.Role = role
		membership.IsActive = true

		if err := memberships.Save(ctx, membership); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"membership": membership})
	}
}

// DeactivateMember switches a membership off without deleting it. The last
// active owner cannot be removed.
func DeactivateMember(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		orgID := c.Param("orgId")

		memberships := repository.New[models.Membership](db)
		membership, err := memberships.FindOne(ctx, repository.Filter{
			Where: map[string]any{"user_id": c.Param("userId"), "organization_id": orgID, "is_active": true},
		})
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, notFound("membership"))
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}

		cl, _ := auth.ClaimsFrom(c)
		callerRole, _, err := rbac.Checker{DB: db}.RoleIn(ctx, cl.UserID(), orgID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !callerRole.AtLeast(membership.Role) {
			respondError(c, errForbidden)
			return
		}

		if membership.Role == rbac.RoleOwner && !keepsOwner(c, memberships, orgID) {
			return
		}

		membership.IsActive = false
		if err := memberships.Save(ctx, membership); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// keepsOwner reports whether the organization still has an active owner once
// one of its current owners steps down. It answers 409 when it would not.
func keepsOwner(c *gin.Context, memberships *repository.Repository[models.Membership], orgID string) bool {
	owners, err := memberships.FindByFilter(c.Request.Context(), repository.Filter{
		Where: map[string]any{"organization_id": orgID, "role": rbac.RoleOwner, "is_active": true},
	})
	if err != nil {
		respondError(c, err)
		return false
	}
	if len(owners) <= 1 {
		respondError(c, apiError(http.StatusConflict, "conflict", "organization must keep an owner"))
		return false
	}
	return true
}
