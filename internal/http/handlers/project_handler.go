package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"airg/internal/models"
	"airg/internal/repository"
)

// ListProjects returns the projects of the organization in the path.
func ListProjects(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := repository.New[models.Project](db).FindByFilter(c.Request.Context(), repository.Filter{
			Where: map[string]any{"organization_id": c.Param("orgId")},
			Order: "created_at DESC",
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"projects": projects})
	}
}

// CreateProject adds a project to the organization in the path.
func CreateProject(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name string `json:"name" binding:"required,max=200"`
		}
		if !bindJSON(c, &input) {
			return
		}

		project := models.Project{
			Name:           strings.TrimSpace(input.Name),
			OrganizationID: c.Param("orgId"),
		}
		if err := repository.New[models.Project](db).Create(c.Request.Context(), &project); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"project": project})
	}
}
