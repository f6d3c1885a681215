package http

import "github.com/gin-gonic/gin"

// Register registers the publish routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/publish", h.Publish)
	rg.POST("/publish/validate", h.Validate)
	rg.GET("/publish/jobs/:id", h.GetJob)
	rg.GET("/publish/versions", h.ListVersions)
}
