package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"airg/internal/storage"
)

// UploadSigner is satisfied by *storage.Presigner.
type UploadSigner interface {
	PresignUpload(ctx context.Context, filename, contentType string) (storage.Upload, error)
}

// SignUpload hands the client a short-lived URL to PUT a PDF straight into
// object storage.
func SignUpload(signer UploadSigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if signer == nil {
			respondError(c, errUnavailable)
			return
		}

		var input struct {
			ProjectID   string `json:"projectId"`
			Filename    string `json:"filename" binding:"required,max=255"`
			ContentType string `json:"contentType"`
		}
		if !bindJSON(c, &input) {
			return
		}
		if input.ContentType == "" {
			input.ContentType = "application/pdf"
		}

		upload, err := signer.PresignUpload(c.Request.Context(), input.Filename, input.ContentType)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, upload)
	}
}

func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
