package channel

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/richmenu-studio/richmenu-backend/internal/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/channel", h.Save)
	rg.GET("/channel", h.Get)
}

type saveRequest struct {
	AccessToken   string `json:"accessToken"`
	ChannelID     string `json:"channelId"`
	ChannelSecret string `json:"channelSecret"`
}

func (h *Handler) Save(c *gin.Context) {
	userID := auth.UserID(c)

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ch := &Channel{
		UserID:        userID,
		AccessToken:   req.AccessToken,
		ChannelID:     req.ChannelID,
		ChannelSecret: req.ChannelSecret,
	}
	if err := h.svc.Save(c.Request.Context(), ch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Get(c *gin.Context) {
	userID := auth.UserID(c)

	ch, err := h.svc.Get(c.Request.Context(), userID)
	if errors.Is(err, ErrNotConnected) {
		c.JSON(http.StatusOK, gin.H{"connected": false})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":   true,
		"channelId":   ch.ChannelID,
		"accessToken": maskToken(ch.AccessToken),
		"updatedAt":   ch.UpdatedAt,
	})
}

// maskToken keeps only the first and last four characters visible.
func maskToken(tok string) string {
	if tok == "" {
		return ""
	}
	if len(tok) <= 8 {
		return "****"
	}
	return tok[:4] + "****" + tok[len(tok)-4:]
}
