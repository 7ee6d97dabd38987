package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/tutors/:id")

	group.GET("/availability", h.GetSchedule)
	group.PUT("/availability", authMiddleware, h.ReplaceSchedule)
	group.GET("/slots", h.Slots)
	group.GET("/bookable-dates", h.BookableDates)
}
