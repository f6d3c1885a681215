package drafts

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/richmenu-studio/richmenu-backend/internal/auth"
	"github.com/richmenu-studio/richmenu-backend/internal/menu"
)

type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/drafts", h.List)
	rg.POST("/drafts", h.Save)
	rg.GET("/drafts/:id", h.Get)
	rg.PUT("/drafts/:id", h.Save)
	rg.DELETE("/drafts/:id", h.Delete)
}

type saveRequest struct {
	Name        string       `json:"name" binding:"required"`
	Menus       []*menu.Menu `json:"menus"`
	ScheduledAt *time.Time   `json:"scheduledAt,omitempty"`
}

func (h *Handler) Save(c *gin.Context) {
	userID := auth.UserID(c)

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	d := &Draft{
		ID:          c.Param("id"),
		UserID:      userID,
		Name:        req.Name,
		Menus:       req.Menus,
		ScheduledAt: req.ScheduledAt,
	}
	if err := h.repo.Save(c.Request.Context(), d); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save draft"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"draft": d})
}

func (h *Handler) Get(c *gin.Context) {
	userID := auth.UserID(c)

	d, err := h.repo.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get draft"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"draft": d})
}

func (h *Handler) List(c *gin.Context) {
	userID := auth.UserID(c)

	ds, err := h.repo.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list drafts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"drafts": ds})
}

func (h *Handler) Delete(c *gin.Context) {
	userID := auth.UserID(c)

	if err := h.repo.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete draft"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
