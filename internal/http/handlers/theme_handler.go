package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"airg/internal/bus"
	"airg/internal/models"
	"airg/internal/repository"
)

type topPaper struct {
	ID     string  `json:"id"`
	Title  *string `json:"title"`
	Weight float32 `json:"weight"`
}

func ListThemes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		themes, err := repository.New[models.Theme](db).FindByFilter(c.Request.Context(), repository.Filter{
			Where: map[string]any{"project_id": scopedProject(c)},
			Limit: 500,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, themes)
	}
}

// RebuildThemes asks the workers to re-embed, re-cluster and re-label a
// project. The three messages go out in that order.
func RebuildThemes(pub bus.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			ProjectID string `json:"projectId"`
		}
		if !bindJSON(c, &input) {
			return
		}
		input.ProjectID = scopedProject(c)

		msg := bus.ProjectMessage{ProjectID: input.ProjectID}
		for _, subject := range []string{bus.SubjectEmbedUpsert, bus.SubjectClusterRun, bus.SubjectLabelRun} {
			if err := pub.Publish(c.Request.Context(), subject, msg); err != nil {
				respondError(c, err)
				return
			}
		}
		c.JSON(http.StatusAccepted, gin.H{"accepted": true, "projectId": input.ProjectID})
	}
}

func findTheme(c *gin.Context, db *gorm.DB) (*models.Theme, bool) {
	theme, err := repository.New[models.Theme](db).FindByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		respondError(c, notFound("theme"))
		return nil, false
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return theme, true
}

// ThemeDetails returns a theme and its ten highest-weighted documents.
func ThemeDetails(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		theme, ok := findTheme(c, db)
		if !ok {
			return
		}

		var papers []topPaper
		err := db.WithContext(c.Request.Context()).
			Table("theme_assignments ta").
			Select("d.id, d.title, ta.weight").
			Joins("JOIN documents d ON d.id = ta.document_id").
			Where("ta.theme_id = ?", theme.ID).
			Order("ta.weight DESC").
			Limit(10).
			Scan(&papers).Error
		if err != nil {
			respondError(c, err)
			return
		}
		if papers == nil {
			papers = []topPaper{}
		}
		c.JSON(http.StatusOK, gin.H{"theme": theme, "topPapers": papers})
	}
}

func SummarizeTheme(db *gorm.DB, pub bus.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		theme, ok := findTheme(c, db)
		if !ok {
			return
		}

		if err := pub.Publish(c.Request.Context(), bus.SubjectSummaryMake, bus.SummaryMessage{ThemeID: theme.ID}); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"accepted": true, "themeId": theme.ID})
	}
}

// CreateBundle requests a citation bundle of the k strongest papers of a
// theme. The theme must belong to the named project.
func CreateBundle(db *gorm.DB, pub bus.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			ThemeID   string `json:"themeId" binding:"required"`
			ProjectID string `json:"projectId"`
			K         int    `json:"k" binding:"omitempty,min=1,max=200"`
		}
		if !bindJSON(c, &input) {
			return
		}
		input.ProjectID = scopedProject(c)
		if input.K == 0 {
			input.K = bus.DefaultBundleSize
		}

		theme, err := repository.New[models.Theme](db).FindByID(c.Request.Context(), input.ThemeID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && theme.ProjectID != input.ProjectID) {
			respondError(c, notFound("theme"))
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}

		msg := bus.BundleMessage{ThemeID: input.ThemeID, ProjectID: input.ProjectID, K: input.K}
		if err := pub.Publish(c.Request.Context(), bus.SubjectBundleMake, msg); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"accepted": true, "themeId": input.ThemeID})
	}
}
