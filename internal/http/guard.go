package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"airg/internal/auth"
	"airg/internal/http/handlers"
	"airg/internal/rbac"
)

var (
	errNoOrganization = errors.New("organization could not be resolved")
	errMissingProject = errors.New("projectId is required")
	errProjectClash   = errors.New("projectId in query and body differ")
)

// orgResolver finds the organization a request acts on.
type orgResolver func(c *gin.Context) (string, error)

type guard struct {
	checker rbac.Checker
}

// require rejects the request unless the caller holds at least role in the
// organization returned by resolve.
func (g guard) require(resolve orgResolver, role rbac.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": "missing bearer token"})
			return
		}

		orgID, err := resolve(c)
		switch {
		case errors.Is(err, errMissingProject), errors.Is(err, errProjectClash):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": "validation_failed", "error": err.Error()})
			return
		case errors.Is(err, errNoOrganization):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"code": "not_found", "error": "resource not found"})
			return
		case err != nil:
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("resolve organization")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "internal", "error": "internal server error"})
			return
		}

		allowed, err := g.checker.CheckPermission(c.Request.Context(), claims.UserID(), orgID, role)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("permission check")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "internal", "error": "internal server error"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "forbidden", "error": "insufficient role for this organization", "required": role})
			return
		}
		c.Next()
	}
}

func orgFromParam(c *gin.Context) (string, error) {
	if id := c.Param("orgId"); id != "" {
		return id, nil
	}
	return "", errNoOrganization
}

// orgFromProject reads projectId from the query string and the JSON body.
// When both carry one they must agree. The body is restored for the handler
// and the authorized project is stored under handlers.ContextProjectID.
func orgFromProject(db *gorm.DB) orgResolver {
	return func(c *gin.Context) (string, error) {
		projectID := c.Query("projectId")
		fromBody := peekProjectID(c.Request)
		switch {
		case projectID == "":
			projectID = fromBody
		case fromBody != "" && fromBody != projectID:
			return "", errProjectClash
		}
		if projectID == "" {
			return "", errMissingProject
		}

		orgID, err := lookupOrg(c, db, "projects", "organization_id", projectID)
		if err != nil {
			return "", err
		}
		c.Set(handlers.ContextProjectID, projectID)
		return orgID, nil
	}
}

// orgFromRecord maps the :id path parameter of a project-owned table to its
// organization.
func orgFromRecord(db *gorm.DB, table string) orgResolver {
	return func(c *gin.Context) (string, error) {
		projectID, err := lookupOrg(c, db, table, "project_id", c.Param("id"))
		if err != nil {
			return "", err
		}
		orgID, err := lookupOrg(c, db, "projects", "organization_id", projectID)
		if err != nil {
			return "", err
		}
		c.Set(handlers.ContextProjectID, projectID)
		return orgID, nil
	}
}

func lookupOrg(c *gin.Context, db *gorm.DB, table, column, id string) (string, error) {
	var values []string
	err := db.WithContext(c.Request.Context()).
		Table(table).
		Where("id = ?", id).
		Limit(1).
		Pluck(column, &values).Error
	if err != nil {
		return "", err
	}
	if len(values) == 0 || values[0] == "" {
		return "", errNoOrganization
	}
	return values[0], nil
}

func peekProjectID(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), r.Body), r.Body}
	if err != nil {
		return ""
	}

	var body struct {
		ProjectID string `json:"projectId"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	return body.ProjectID
}
