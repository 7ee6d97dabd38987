package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/subjects")

	group.GET("", h.List)

	// Catalog writes are admin-only
	group.POST("", authMiddleware, adminMiddleware, h.Create)
	group.DELETE("/:id", authMiddleware, adminMiddleware, h.Delete)
}
