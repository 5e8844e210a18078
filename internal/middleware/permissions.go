package middleware

import (
	"net/http"

	"aquaserve-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequirePermission gates a route on the caller holding at least one of
// the given permission keys. Super Admin bypasses inside the resolver.
func RequirePermission(resolver *services.PermissionService, keys ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		allowed, err := resolver.HasAnyPermission(c.Request.Context(), userID, keys...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
			c.Abort()
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
			c.Abort()
			return
		}

		c.Next()
	}
}
