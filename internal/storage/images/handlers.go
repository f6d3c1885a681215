package images

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/richmenu-studio/richmenu-backend/internal/auth"
	"github.com/richmenu-studio/richmenu-backend/internal/menu"
)

const presignTTL = 7 * 24 * time.Hour

// Blobs is what the upload handler needs from the image store.
type Blobs interface {
	Put(ctx context.Context, userID string, data []byte, contentType string) (string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Handler struct {
	store Blobs
}

func NewHandler(store Blobs) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/images", h.Upload)
}

type uploadRequest struct {
	ImageData string `json:"imageData" binding:"required"`
}

// Upload validates an image against the platform constraints, stores it,
// and returns a presigned URL the builder can reference instead of inline
// base64.
func (h *Handler) Upload(c *gin.Context) {
	userID := auth.UserID(c)

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if !menu.ValidateImageFileSize(req.ImageData) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "圖片檔案大小超過 1MB 上限"})
		return
	}

	raw, err := menu.DecodeBase64Image(req.ImageData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image data"})
		return
	}

	w, ht, err := menu.ImageDimensions(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image format"})
		return
	}
	if err := menu.ValidateImageDimensions(w, ht); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key, err := h.store.Put(c.Request.Context(), userID, raw, "image/png")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
		return
	}

	url, err := h.store.PresignGet(c.Request.Context(), key, presignTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to presign image url"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key":    key,
		"url":    url,
		"width":  w,
		"height": ht,
	})
}
