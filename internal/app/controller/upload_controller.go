package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/thriftshop/storefront/internal/errors"
	"github.com/thriftshop/storefront/internal/middleware"
	"github.com/thriftshop/storefront/internal/storage"
)

// ImagePresigner issues direct upload URLs.
type ImagePresigner interface {
	PresignUpload(ctx context.Context, folder, filename, contentType string) (*storage.PresignedUpload, error)
}

type UploadController struct {
	storage ImagePresigner
}

func NewUploadController(storage ImagePresigner) *UploadController {
	return &UploadController{
		storage: storage,
	}
}

type PresignUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// PresignProductImage returns a URL an admin can PUT a product photo to
// POST /api/v1/admin/uploads/presign
func (ctrl *UploadController) PresignProductImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PresignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "filename and content_type are required")
		return
	}

	upload, err := ctrl.storage.PresignUpload(c.Request.Context(), "products", req.Filename, req.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrContentTypeNotAllowed) {
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only JPEG, PNG, and WEBP images are allowed")
			return
		}
		log.Error("Failed to presign upload", err, map[string]interface{}{
			"filename": req.Filename,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to prepare upload")
		return
	}

	log.Info("Upload presigned", map[string]interface{}{
		"key": upload.Key,
	})
	c.JSON(http.StatusOK, upload)
}
