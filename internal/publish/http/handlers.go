package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/richmenu-studio/richmenu-backend/internal/auth"
	"github.com/richmenu-studio/richmenu-backend/internal/channel"
	"github.com/richmenu-studio/richmenu-backend/internal/menu"
	"github.com/richmenu-studio/richmenu-backend/internal/publish/domain"
	"github.com/richmenu-studio/richmenu-backend/internal/publish/service"
)

// Publish runs the publish orchestration for the authenticated user.
func (h *Handler) Publish(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "user not authenticated"})
		return
	}

	var body struct {
		Menus         []menu.PublishMenu `json:"menus"`
		DraftID       string             `json:"draftId,omitempty"`
		CleanOldMenus bool               `json:"cleanOldMenus,omitempty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request"})
		return
	}

	token, err := h.tokens.AccessToken(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, channel.ErrNotConnected) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "找不到 LINE Channel 設定"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	out, err := h.publisher.Publish(c.Request.Context(), service.PublishInput{
		UserID:        userID,
		AccessToken:   token,
		DraftID:       body.DraftID,
		CleanOldMenus: body.CleanOldMenus,
		Menus:         body.Menus,
	})
	if err != nil {
		// The error message (including any embedded platform error body) is
		// surfaced verbatim so the operator can diagnose without log access.
		resp := gin.H{"success": false, "error": err.Error()}
		if out != nil && out.JobID != "" {
			resp["jobId"] = out.JobID
		}
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	if body.DraftID != "" && h.drafts != nil {
		// Best effort: a publish that succeeded stays reported as success
		// even if the draft status update fails.
		if err := h.drafts.MarkPublished(c.Request.Context(), userID, body.DraftID); err != nil {
			log.Printf("publish: failed to mark draft %s published: %v", body.DraftID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"jobId":      out.JobID,
		"results":    out.Results,
		"mainMenuId": out.MainMenuID,
	})
}

// Validate runs both validation categories over a menu set without touching
// the platform.
func (h *Handler) Validate(c *gin.Context) {
	var body struct {
		Menus []menu.Menu `json:"menus"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	fieldErrs := menu.ValidateMenus(body.Menus)
	imageErrs := menu.ValidateImages(body.Menus)

	c.JSON(http.StatusOK, gin.H{
		"valid":       len(fieldErrs) == 0 && len(imageErrs) == 0,
		"errors":      fieldErrs,
		"imageErrors": imageErrs,
	})
}

// GetJob retrieves a publish job with its per-menu progress.
func (h *Handler) GetJob(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	jobID := c.Param("id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job ID is required"})
		return
	}

	job, err := h.jobs.GetByID(c.Request.Context(), userID, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job})
}

// ListVersions lists the user's version history, optionally filtered by
// alias via ?alias=.
func (h *Handler) ListVersions(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	versions, err := h.versions.ListByUser(c.Request.Context(), userID, c.Query("alias"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list versions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions})
}
