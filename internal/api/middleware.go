package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumabee/tutor-booking-backend/internal/auth"
	"github.com/lumabee/tutor-booking-backend/internal/user"
)

// RequireAdmin ensures the authenticated user has the admin role.
// It MUST be used after auth.AuthRequired middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.GetUserRole(c) != string(user.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "admin privileges required",
			})
			return
		}
		c.Next()
	}
}
