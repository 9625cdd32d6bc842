package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"airg/internal/models"
	"airg/internal/repository"
)

type createDocumentInput struct {
	ProjectID string          `json:"projectId"`
	Hash      string          `json:"hash" binding:"required,max=64"`
	Title     *string         `json:"title" binding:"omitempty,max=1024"`
	DOI       *string         `json:"doi" binding:"omitempty,max=512"`
	S3PdfKey  *string         `json:"s3PdfKey" binding:"omitempty,max=512"`
	Authors   []models.Author `json:"authors"`
	Venue     *string         `json:"venue" binding:"omitempty,max=256"`
	Year      *int            `json:"year"`
}

// CreateDocument registers an uploaded PDF. Documents are deduplicated by
// content hash: re-posting a known hash in the same project returns the
// stored row.
func CreateDocument(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input createDocumentInput
		if !bindJSON(c, &input) {
			return
		}
		input.ProjectID = scopedProject(c)

		ctx := c.Request.Context()
		docs := repository.New[models.Document](db)

		existing, err := docs.FindOne(ctx, repository.Filter{Where: map[string]any{"hash": input.Hash}})
		switch {
		case err == nil && existing.ProjectID == input.ProjectID:
			c.JSON(http.StatusOK, existing)
			return
		case err == nil:
			respondError(c, apiError(http.StatusConflict, "conflict", "document already registered in another project"))
			return
		case !errors.Is(err, repository.ErrNotFound):
			respondError(c, err)
			return
		}

		doc := models.Document{
			ProjectID: input.ProjectID,
			Hash:      input.Hash,
			Title:     input.Title,
			DOI:       input.DOI,
			S3PdfKey:  input.S3PdfKey,
			Authors:   input.Authors,
			Venue:     input.Venue,
			Year:      input.Year,
			Status:    models.DocumentUploaded,
		}
		if err := docs.Create(ctx, &doc); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, doc)
	}
}

// ListDocuments returns up to 100 documents of a project, newest first,
// optionally narrowed by year, venue and a case-insensitive title match.
func ListDocuments(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		where := map[string]any{"project_id": scopedProject(c)}
		if y := c.Query("year"); y != "" {
			year, err := strconv.Atoi(y)
			if err != nil {
				respondError(c, validationFailed("year must be a number"))
				return
			}
			where["year"] = year
		}
		if venue := c.Query("venue"); venue != "" {
			where["venue"] = venue
		}

		filter := repository.Filter{Where: where, Order: "created_at DESC", Limit: 100}
		if q := strings.TrimSpace(c.Query("query")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			filter.Scopes = append(filter.Scopes, func(tx *gorm.DB) *gorm.DB {
				return tx.Where("LOWER(title) LIKE ?", like)
			})
		}

		docs, err := repository.New[models.Document](db).FindByFilter(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, docs)
	}
}
