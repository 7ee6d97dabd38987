package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	g.POST("/bookings/:id/checkout", authMiddleware, h.Checkout)
	g.GET("/payments/verify", authMiddleware, h.Verify)

	// Authenticated by the Stripe signature, not a user token.
	g.POST("/webhooks/stripe", h.Webhook)
}
